// Package share renders session share codes for handing to another person.
package share

import (
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// DisplayCode prints the share code as plain text.
func DisplayCode(w io.Writer, code string) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintf(w, "  Session share code: %s\n", FormatCodeWithSpaces(code))
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "")
}

// DisplayQRCode prints the share code as an ASCII QR code, with a
// plain-text fallback when generation fails.
func DisplayQRCode(w io.Writer, code string) {
	// Medium error correction keeps the density reasonable for
	// terminal rendering.
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(w, "Error generating QR code: %v\n", err)
		fmt.Fprintf(w, "Falling back to text display.\n\n")
		DisplayCode(w, code)
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "        SCAN TO JOIN THIS SESSION")
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "")

	// ToSmallString(false) produces compact half-block output without
	// a border.
	fmt.Fprint(w, qr.ToSmallString(false))

	fmt.Fprintln(w, "-------------------------------------------")
	fmt.Fprintf(w, "  Code: %s\n", FormatCodeWithSpaces(code))
	fmt.Fprintln(w, "===========================================")
	fmt.Fprintln(w, "")
}

// FormatCodeWithSpaces adds spaces between characters for readability.
// "123456" -> "1 2 3 4 5 6"
func FormatCodeWithSpaces(code string) string {
	result := ""
	for i, c := range code {
		if i > 0 {
			result += " "
		}
		result += string(c)
	}
	return result
}
