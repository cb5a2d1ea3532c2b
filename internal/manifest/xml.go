package manifest

import (
	"encoding/xml"
	"fmt"
	"io"

	"odfcrypt/internal/errors"
)

// XML namespaces of the manifest vocabulary.
const (
	NamespaceManifest = "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"
	NamespaceLoext    = "urn:org:documentfoundation:names:experimental:office:xmlns:loext:1.0"
)

// Output side: element and attribute names carry their prefix literally so
// the document uses the conventional manifest: and loext: prefixes.

type xmlManifestOut struct {
	XMLName xml.Name          `xml:"manifest:manifest"`
	NS      string            `xml:"xmlns:manifest,attr"`
	Loext   string            `xml:"xmlns:loext,attr,omitempty"`
	Version string            `xml:"manifest:version,attr"`
	Entries []xmlFileEntryOut `xml:"manifest:file-entry"`
}

type xmlFileEntryOut struct {
	FullPath   string                `xml:"manifest:full-path,attr"`
	Version    string                `xml:"manifest:version,attr,omitempty"`
	MediaType  string                `xml:"manifest:media-type,attr"`
	Size       int64                 `xml:"manifest:size,attr,omitempty"`
	Encryption *xmlEncryptionDataOut `xml:"manifest:encryption-data"`
}

type xmlEncryptionDataOut struct {
	ChecksumType  string              `xml:"manifest:checksum-type,attr,omitempty"`
	Checksum      string              `xml:"manifest:checksum,attr,omitempty"`
	Algorithm     xmlAlgorithmOut     `xml:"manifest:algorithm"`
	StartKey      *xmlStartKeyOut     `xml:"manifest:start-key-generation"`
	KeyDerivation xmlKeyDerivationOut `xml:"manifest:key-derivation"`
}

type xmlAlgorithmOut struct {
	Name string `xml:"manifest:algorithm-name,attr"`
	IV   string `xml:"manifest:initialisation-vector,attr"`
}

type xmlStartKeyOut struct {
	Name    string `xml:"manifest:start-key-generation-name,attr"`
	KeySize int    `xml:"manifest:key-size,attr"`
}

type xmlKeyDerivationOut struct {
	Name             string `xml:"manifest:key-derivation-name,attr"`
	KeySize          int    `xml:"manifest:key-size,attr"`
	IterationCount   int    `xml:"manifest:iteration-count,attr,omitempty"`
	Salt             string `xml:"manifest:salt,attr"`
	Argon2Iterations int    `xml:"loext:argon2-iterations,attr,omitempty"`
	Argon2Memory     uint32 `xml:"loext:argon2-memory,attr,omitempty"`
	Argon2Lanes      uint8  `xml:"loext:argon2-lanes,attr,omitempty"`
}

// Input side: the decoder resolves prefixes, so names are namespace qualified.

type xmlManifestIn struct {
	XMLName xml.Name         `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 manifest"`
	Version string           `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 version,attr"`
	Entries []xmlFileEntryIn `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 file-entry"`
}

type xmlFileEntryIn struct {
	FullPath   string               `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 full-path,attr"`
	Version    string               `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 version,attr"`
	MediaType  string               `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 media-type,attr"`
	Size       int64                `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 size,attr"`
	Encryption *xmlEncryptionDataIn `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 encryption-data"`
}

type xmlEncryptionDataIn struct {
	ChecksumType string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 checksum-type,attr"`
	Checksum     string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 checksum,attr"`
	Algorithm    struct {
		Name string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 algorithm-name,attr"`
		IV   string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 initialisation-vector,attr"`
	} `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 algorithm"`
	StartKey *struct {
		Name    string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 start-key-generation-name,attr"`
		KeySize int    `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 key-size,attr"`
	} `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 start-key-generation"`
	KeyDerivation struct {
		Name             string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 key-derivation-name,attr"`
		KeySize          int    `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 key-size,attr"`
		IterationCount   int    `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 iteration-count,attr"`
		Salt             string `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 salt,attr"`
		Argon2Iterations int    `xml:"urn:org:documentfoundation:names:experimental:office:xmlns:loext:1.0 argon2-iterations,attr"`
		Argon2Memory     uint32 `xml:"urn:org:documentfoundation:names:experimental:office:xmlns:loext:1.0 argon2-memory,attr"`
		Argon2Lanes      uint8  `xml:"urn:org:documentfoundation:names:experimental:office:xmlns:loext:1.0 argon2-lanes,attr"`
	} `xml:"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0 key-derivation"`
}

// WriteXML serializes the manifest as META-INF/manifest.xml content.
func (m *Manifest) WriteXML(w io.Writer) error {
	doc := xmlManifestOut{
		NS:      NamespaceManifest,
		Version: m.version,
		Entries: make([]xmlFileEntryOut, 0, len(m.entries)),
	}

	for _, e := range m.entries {
		out := xmlFileEntryOut{
			FullPath:  e.Path,
			Version:   e.Version,
			MediaType: e.MediaType,
		}
		if e.Encrypted() {
			out.Size = e.Size()
			out.Encryption = encryptionToXML(e.Encryption)
			if e.Encryption.KeyDerivation == KeyDerivationArgon2id {
				doc.Loext = NamespaceLoext
			}
		}
		doc.Entries = append(doc.Entries, out)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}

func encryptionToXML(d EncryptionData) *xmlEncryptionDataOut {
	out := &xmlEncryptionDataOut{
		ChecksumType: d.ChecksumType,
		Checksum:     d.Checksum,
		Algorithm:    xmlAlgorithmOut{Name: d.Algorithm, IV: d.IV},
		KeyDerivation: xmlKeyDerivationOut{
			Name:    d.KeyDerivation,
			KeySize: d.KeySize,
			Salt:    d.Salt,
		},
	}
	if d.StartKey != "" {
		out.StartKey = &xmlStartKeyOut{Name: d.StartKey, KeySize: d.StartKeySize}
	}
	kd := &out.KeyDerivation
	if d.KeyDerivation == KeyDerivationArgon2id {
		kd.Argon2Iterations = d.Iterations
		kd.Argon2Memory = d.Argon2Memory
		kd.Argon2Lanes = d.Argon2Lanes
	} else {
		kd.IterationCount = d.Iterations
	}
	return out
}

// Parse reads META-INF/manifest.xml content.
//
// Only what the manifest records is restored: CompressedSize, EncryptedSize
// and CRC32 live in the archive itself and stay zero.
func Parse(r io.Reader) (*Manifest, error) {
	var doc xmlManifestIn
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", errors.ErrInvalidPackage, err)
	}

	m := New(doc.Version)
	for _, in := range doc.Entries {
		e := Entry{
			Path:      in.FullPath,
			MediaType: in.MediaType,
			Version:   in.Version,
		}
		if in.Encryption != nil {
			e = e.WithEncryption(encryptionFromXML(in.Encryption, in.Size))
		} else if e.Path == RootPath || e.Path == MimetypePath || e.Path == ManifestPath {
			e.NeverEncrypt = true
		}
		if err := m.Add(e); err != nil {
			return nil, fmt.Errorf("%w: manifest: %v", errors.ErrInvalidPackage, err)
		}
	}
	return m, nil
}

func encryptionFromXML(in *xmlEncryptionDataIn, size int64) EncryptionData {
	d := EncryptionData{
		Algorithm:     in.Algorithm.Name,
		IV:            in.Algorithm.IV,
		KeyDerivation: in.KeyDerivation.Name,
		KeySize:       in.KeyDerivation.KeySize,
		Salt:          in.KeyDerivation.Salt,
		ChecksumType:  in.ChecksumType,
		Checksum:      in.Checksum,
		PlainSize:     int(size),
	}
	if in.StartKey != nil {
		d.StartKey = in.StartKey.Name
		d.StartKeySize = in.StartKey.KeySize
	}
	if d.KeyDerivation == KeyDerivationArgon2id {
		d.Iterations = in.KeyDerivation.Argon2Iterations
		d.Argon2Memory = in.KeyDerivation.Argon2Memory
		d.Argon2Lanes = in.KeyDerivation.Argon2Lanes
	} else {
		d.Iterations = in.KeyDerivation.IterationCount
	}
	return d
}
