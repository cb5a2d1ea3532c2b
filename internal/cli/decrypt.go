package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"odfcrypt/internal/log"
	"odfcrypt/internal/pack"
	"odfcrypt/internal/zipio"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Remove the password from an OpenDocument file",
	Long: `Decrypt every encrypted member of an OpenDocument package and write a
plain package. Both PBKDF2/AES-CBC and Argon2id/AES-GCM packages are read.

Examples:
  # Decrypt interactively (prompts for password)
  odfcrypt decrypt -i report.encrypted.odt

  # Decrypt to a chosen path
  odfcrypt decrypt -i locked.odt -o report.odt -p "mypassword"`,
	RunE: runDecrypt,
}

// Decrypt flags
var (
	decInput         string
	decOutput        string
	decPassword      string
	decPasswordStdin bool
	decLevel         int
	decQuiet         bool
	decForce         bool
)

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVarP(&decInput, "input", "i", "", "Encrypted OpenDocument file")
	decryptCmd.Flags().StringVarP(&decOutput, "output", "o", "", "Output path (default: <input>.decrypted.<ext>)")
	decryptCmd.Flags().StringVarP(&decPassword, "password", "p", "", "Decryption password")
	decryptCmd.Flags().BoolVarP(&decPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	decryptCmd.Flags().IntVarP(&decLevel, "level", "l", zipio.DefaultLevel, "Deflate level of the plain package")
	decryptCmd.Flags().BoolVarP(&decQuiet, "quiet", "q", false, "Suppress progress output")
	decryptCmd.Flags().BoolVarP(&decForce, "force", "f", false, "Overwrite the output file if it exists")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	if err := checkInput(decInput); err != nil {
		return err
	}
	output, err := outputPath(decInput, decOutput, "decrypted")
	if err != nil {
		return err
	}
	cfg := zipio.Config{ZipBufferSize: settings.ZipBuffer, WriterBufferSize: settings.WriterBuffer, Level: settings.Level}
	if cmd.Flags().Changed("level") {
		cfg.Level = decLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	password, err := passwordSource{value: decPassword, stdin: decPasswordStdin}.resolve()
	if err != nil {
		return err
	}

	reporter := NewReporter(decQuiet)
	globalReporter = reporter

	stop := reporter.Spin("Decrypting " + decInput)
	pkg, size, err := loadPackage(decInput, []byte(password))
	stop()
	if err != nil {
		return explain(err)
	}

	if !decQuiet {
		fmt.Fprintf(reporter.out, "Decrypting %d member(s) of %s to %s\n", len(pkg.Members), decInput, output)
	}
	reporter.SetStatus("Writing")

	err = writePackage(reporter, output, decForce, size, func(w io.Writer) error {
		zw, err := zipio.NewBuilder().
			Level(cfg.Level).
			ZipBuffer(cfg.ZipBufferSize).
			WriterBuffer(cfg.WriterBufferSize).
			Build(w)
		if err != nil {
			return err
		}
		if err := pack.Assemble(zw, pkg); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	})
	reporter.Finish()
	if err != nil {
		log.Error("decrypt failed", log.String("input", decInput), log.Err(err))
		return explain(err)
	}

	reporter.PrintSuccess("Decryption completed successfully: %s", output)
	return nil
}
