// odfcrypt password-protects OpenDocument files (.odt, .ods, .odp, ...)
// and removes the protection again.
//
// Every member except mimetype and META-INF/manifest.xml is deflated and
// encrypted on its own, with parameters recorded in the manifest:
//   - PBKDF2-HMAC-SHA1 and AES-256-CBC, readable by every ODF 1.2 reader
//   - Argon2id and AES-256-GCM, as written by recent office suites

package main

import (
	"os"

	"odfcrypt/internal/cli"
)

// version is the application version reported by --version.
const version = "v1.0.0"

func main() {
	os.Exit(cli.Execute(version))
}
