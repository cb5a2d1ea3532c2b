// Package pack assembles complete OpenDocument packages through a
// zipio.Writer and reads them back, decrypting encrypted members.
package pack

import (
	"bytes"
	"fmt"

	"odfcrypt/internal/log"
	"odfcrypt/internal/manifest"
	"odfcrypt/internal/zipio"
)

// Member is one document member and its plaintext content.
type Member struct {
	Entry manifest.Entry
	Data  []byte
}

// Package is a document package held in memory.
//
// mimetype, the root entry and META-INF/manifest.xml are derived from
// MediaType and Version when the package is assembled, so Members never
// contains them.
type Package struct {
	MediaType string
	Version   string
	Members   []Member
}

// New returns an empty package of the given media type.
func New(mediaType string) *Package {
	return &Package{MediaType: mediaType, Version: manifest.DefaultVersion}
}

// Add appends a member.
func (p *Package) Add(e manifest.Entry, data []byte) {
	p.Members = append(p.Members, Member{Entry: e, Data: data})
}

// Member returns the member stored at path.
func (p *Package) Member(path string) (Member, bool) {
	for _, m := range p.Members {
		if m.Entry.Path == path {
			return m, true
		}
	}
	return Member{}, false
}

// derived reports whether path is rebuilt by Assemble.
func derived(path string) bool {
	return path == manifest.MimetypePath || path == manifest.ManifestPath || path == manifest.RootPath
}

// Assemble writes pkg through w and finishes the archive. The caller closes w.
//
// The order follows the package format: mimetype first and stored, then
// the members, then META-INF/manifest.xml listing the descriptors that w
// collected, with encryption parameters for encrypted members.
func Assemble(w zipio.Writer, pkg *Package) error {
	if err := w.PutNextEntry(manifest.MimetypeEntry()); err != nil {
		return err
	}
	if _, err := w.WriteString(pkg.MediaType); err != nil {
		return err
	}
	if err := w.CloseEntry(); err != nil {
		return err
	}

	if err := w.RegisterEntry(manifest.RootEntry(pkg.MediaType, pkg.Version)); err != nil {
		return err
	}

	for _, m := range pkg.Members {
		if derived(m.Entry.Path) {
			continue
		}
		// Descriptors are registered as plain; the writer adds parameters.
		e := m.Entry
		e.Encryption = manifest.EncryptionData{}

		if err := w.PutAndRegisterNextEntry(e); err != nil {
			return err
		}
		if _, err := w.Write(m.Data); err != nil {
			return err
		}
		if err := w.CloseEntry(); err != nil {
			return err
		}
	}

	if err := w.RegisterEntry(manifest.ManifestFileEntry()); err != nil {
		return err
	}

	var doc bytes.Buffer
	if err := w.Manifest().WriteXML(&doc); err != nil {
		return fmt.Errorf("render manifest: %w", err)
	}
	if err := w.PutNextEntry(manifest.ManifestFileEntry()); err != nil {
		return err
	}
	if _, err := w.Write(doc.Bytes()); err != nil {
		return err
	}
	if err := w.CloseEntry(); err != nil {
		return err
	}

	log.Info("package assembled",
		log.String("media_type", pkg.MediaType),
		log.Int("members", len(pkg.Members)),
		log.Int("encrypted", w.Manifest().EncryptedCount()))

	return w.Finish()
}
