package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/pretty"

	"github.com/hmans/shelf/internal/logging"
)

// printJSON writes v as indented JSON, colored when stdout is a terminal.
func printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = pretty.Pretty(data)
	if logging.IsTerminal(os.Stdout) {
		data = pretty.Color(data, nil)
	}
	fmt.Print(string(data))
	return nil
}
