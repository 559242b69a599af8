package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-attendance/identity"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", outputJSON:
		return printer{format: outputJSON, w: w}, nil
	case outputYAML, "yml":
		return printer{format: outputYAML, w: w}, nil
	default:
		return printer{}, fmt.Errorf("unsupported output format %q", format)
	}
}

func (p printer) print(value any) error {
	if p.format == outputYAML {
		encoder := yaml.NewEncoder(p.w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(p.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// printError writes the user-facing text for err. Identity provider errors
// carry a friendlier message than their envelope.
func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	message := err.Error()
	switch {
	case identity.ProviderCode(err) != "", identity.IsNotSignedIn(err), core.IsTokenUnavailable(err):
		message = identity.UserMessage(err)
	case goerrors.IsValidation(err):
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && len(richErr.ValidationErrors) > 0 {
			message = richErr.ValidationErrors.Error()
		}
	}
	fmt.Fprintf(w, "error: %s\n", message)
}
