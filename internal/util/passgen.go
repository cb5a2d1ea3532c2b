package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character classes offered by GenPassword.
const (
	UpperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	LowerChars  = "abcdefghijklmnopqrstuvwxyz"
	NumberChars = "0123456789"
	SymbolChars = "-=_+!@#$^&()?<>"
)

// PassgenOptions selects the length and character classes of a generated
// password.
type PassgenOptions struct {
	Length  int
	Upper   bool
	Lower   bool
	Numbers bool
	Symbols bool
}

func (o PassgenOptions) classes() []string {
	var cs []string
	if o.Upper {
		cs = append(cs, UpperChars)
	}
	if o.Lower {
		cs = append(cs, LowerChars)
	}
	if o.Numbers {
		cs = append(cs, NumberChars)
	}
	if o.Symbols {
		cs = append(cs, SymbolChars)
	}
	return cs
}

// GenPassword returns a password drawn from crypto/rand. When Length allows
// it, every enabled class occurs at least once. It returns "" when no class
// is enabled or Length is not positive.
func GenPassword(opts PassgenOptions) (string, error) {
	classes := opts.classes()
	if len(classes) == 0 || opts.Length <= 0 {
		return "", nil
	}

	all := ""
	for _, c := range classes {
		all += c
	}

	out := make([]byte, opts.Length)
	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// The leading class characters must not stay in a predictable place.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("crypto/rand: %w", err)
	}
	return int(v.Int64()), nil
}
