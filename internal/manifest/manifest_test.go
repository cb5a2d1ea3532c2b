package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odfcrypt/internal/errors"
)

func pbkdf2Data() EncryptionData {
	return EncryptionData{
		Algorithm:      AlgorithmAES256CBC,
		KeyDerivation:  KeyDerivationPBKDF2,
		KeySize:        32,
		Iterations:     100000,
		StartKey:       StartKeySHA256,
		StartKeySize:   32,
		Salt:           "c2FsdHNhbHRzYWx0c2FsdA==",
		IV:             "aXZpdml2aXZpdml2aXZpdg==",
		ChecksumType:   ChecksumSHA256_1K,
		Checksum:       "Y2hlY2tzdW0=",
		PlainSize:      1234,
		CompressedSize: 321,
		EncryptedSize:  336,
		CRC32:          0xdeadbeef,
	}
}

func TestEntryConstructors(t *testing.T) {
	e := NewEntry("content.xml", MediaTypeXML)
	assert.False(t, e.NeverEncrypt)
	assert.False(t, e.Encrypted())
	assert.Zero(t, e.Size())

	assert.True(t, NewPlainEntry("Thumbnails/thumbnail.png", "image/png").NeverEncrypt)
	assert.True(t, MimetypeEntry().NeverEncrypt)
	assert.Equal(t, MimetypePath, MimetypeEntry().Path)
	assert.True(t, ManifestFileEntry().NeverEncrypt)
	assert.Equal(t, ManifestPath, ManifestFileEntry().Path)

	root := RootEntry(MediaTypeSpreadsheet, "1.2")
	assert.Equal(t, RootPath, root.Path)
	assert.Equal(t, "1.2", root.Version)
}

func TestWithEncryptionCopies(t *testing.T) {
	plain := NewEntry("content.xml", MediaTypeXML)
	enc := plain.WithEncryption(pbkdf2Data())

	assert.False(t, plain.Encrypted(), "receiver must not change")
	assert.True(t, enc.Encrypted())
	assert.Equal(t, plain.Path, enc.Path)
	assert.Equal(t, int64(1234), enc.Size())
}

func TestManifestAddAndGet(t *testing.T) {
	m := New("")
	assert.Equal(t, DefaultVersion, m.Version())

	require.NoError(t, m.Add(RootEntry(MediaTypeSpreadsheet, DefaultVersion)))
	require.NoError(t, m.Add(NewEntry("content.xml", MediaTypeXML).WithEncryption(pbkdf2Data())))
	require.NoError(t, m.Add(NewEntry("styles.xml", MediaTypeXML)))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 1, m.EncryptedCount())
	assert.True(t, m.Contains("styles.xml"))
	assert.False(t, m.Contains("meta.xml"))

	got, ok := m.Get("content.xml")
	require.True(t, ok)
	assert.Equal(t, pbkdf2Data(), got.Encryption)

	paths := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"/", "content.xml", "styles.xml"}, paths)
}

func TestManifestRejectsDuplicates(t *testing.T) {
	m := New("")
	require.NoError(t, m.Add(NewEntry("content.xml", MediaTypeXML)))

	err := m.Add(NewEntry("content.xml", MediaTypeXML))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateEntry)
	assert.True(t, errors.IsProtocol(err))
	assert.Equal(t, 1, m.Len())
}

func TestManifestRejectsEmptyPath(t *testing.T) {
	err := New("").Add(Entry{})
	assert.True(t, errors.IsProtocol(err))
}

func TestEntriesReturnsCopy(t *testing.T) {
	m := New("")
	require.NoError(t, m.Add(NewEntry("content.xml", MediaTypeXML)))

	entries := m.Entries()
	entries[0].Path = "evil.xml"

	_, ok := m.Get("content.xml")
	assert.True(t, ok)
}

func TestWriteXML(t *testing.T) {
	m := New("")
	require.NoError(t, m.Add(RootEntry(MediaTypeSpreadsheet, DefaultVersion)))
	require.NoError(t, m.Add(NewEntry("content.xml", MediaTypeXML).WithEncryption(pbkdf2Data())))

	var buf bytes.Buffer
	require.NoError(t, m.WriteXML(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">`)
	assert.Contains(t, out, `manifest:full-path="/" manifest:version="1.2" manifest:media-type="application/vnd.oasis.opendocument.spreadsheet"`)
	assert.Contains(t, out, `manifest:size="1234"`)
	assert.Contains(t, out, `manifest:checksum-type="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0#sha256-1k"`)
	assert.Contains(t, out, `manifest:algorithm-name="http://www.w3.org/2001/04/xmlenc#aes256-cbc"`)
	assert.Contains(t, out, `manifest:start-key-generation-name="http://www.w3.org/2000/09/xmldsig#sha256"`)
	assert.Contains(t, out, `manifest:iteration-count="100000"`)
	assert.NotContains(t, out, "loext")

	// ODF requires algorithm, start-key-generation, key-derivation in that order.
	alg := strings.Index(out, "manifest:algorithm ")
	start := strings.Index(out, "manifest:start-key-generation ")
	kd := strings.Index(out, "manifest:key-derivation ")
	assert.True(t, alg < start && start < kd, "unexpected child order:\n%s", out)
}

func TestXMLRoundTrip(t *testing.T) {
	argon := EncryptionData{
		Algorithm:     AlgorithmAES256GCM,
		KeyDerivation: KeyDerivationArgon2id,
		KeySize:       32,
		Iterations:    3,
		Argon2Memory:  65536,
		Argon2Lanes:   4,
		StartKey:      StartKeySHA256,
		StartKeySize:  32,
		Salt:          "c2FsdA==",
		IV:            "aXY=",
		PlainSize:     99,
	}

	m := New("")
	require.NoError(t, m.Add(RootEntry(MediaTypeText, DefaultVersion)))
	require.NoError(t, m.Add(NewEntry("content.xml", MediaTypeXML).WithEncryption(pbkdf2Data())))
	require.NoError(t, m.Add(NewEntry("styles.xml", MediaTypeXML).WithEncryption(argon)))
	require.NoError(t, m.Add(ManifestFileEntry()))

	var buf bytes.Buffer
	require.NoError(t, m.WriteXML(&buf))
	assert.Contains(t, buf.String(), `xmlns:loext="`+NamespaceLoext+`"`)
	assert.Contains(t, buf.String(), `loext:argon2-memory="65536"`)

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	require.Equal(t, m.Len(), parsed.Len())

	content, ok := parsed.Get("content.xml")
	require.True(t, ok)
	want := pbkdf2Data()
	want.CompressedSize, want.EncryptedSize, want.CRC32 = 0, 0, 0
	assert.Equal(t, want, content.Encryption)

	styles, ok := parsed.Get("styles.xml")
	require.True(t, ok)
	assert.Equal(t, argon, styles.Encryption)

	root, ok := parsed.Get(RootPath)
	require.True(t, ok)
	assert.True(t, root.NeverEncrypt)
	assert.Equal(t, DefaultVersion, root.Version)

	mf, ok := parsed.Get(ManifestPath)
	require.True(t, ok)
	assert.True(t, mf.NeverEncrypt)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(strings.NewReader("<not-a-manifest"))
	assert.ErrorIs(t, err, errors.ErrInvalidPackage)

	dup := `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="a.xml" manifest:media-type="text/xml"/>
 <manifest:file-entry manifest:full-path="a.xml" manifest:media-type="text/xml"/>
</manifest:manifest>`
	_, err = Parse(strings.NewReader(dup))
	assert.ErrorIs(t, err, errors.ErrInvalidPackage)
}
