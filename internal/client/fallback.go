package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/your-org/reconnect/internal/models"
)

// ClipboardFallback prints the document, asks the operator whether to copy
// it to the system clipboard and tells them which file to paste it into.
type ClipboardFallback struct {
	In           io.Reader
	Out          io.Writer
	DocumentPath string

	copy func(string) error
}

func NewClipboardFallback(in io.Reader, out io.Writer, documentPath string) *ClipboardFallback {
	return &ClipboardFallback{
		In:           in,
		Out:          out,
		DocumentPath: documentPath,
		copy:         clipboard.WriteAll,
	}
}

func (f *ClipboardFallback) Recover(_ context.Context, doc models.Document, cause error) (bool, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	fmt.Fprintf(f.Out, "\nCould not save the document automatically: %v\n\n", cause)
	fmt.Fprintf(f.Out, "To update it by hand, replace the contents of %s with:\n\n", f.DocumentPath)
	fmt.Fprintln(f.Out, string(data))
	fmt.Fprint(f.Out, "\nCopy the document to the clipboard? [y/N] ")

	answer, _ := bufio.NewReader(f.In).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return false, nil
	}

	copyFn := f.copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	if err := copyFn(string(data)); err != nil {
		fmt.Fprintln(f.Out, "Could not copy to the clipboard; copy the document printed above instead.")
		return false, fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Fprintf(f.Out, "Copied. Paste it into %s\n", f.DocumentPath)
	return true, nil
}
