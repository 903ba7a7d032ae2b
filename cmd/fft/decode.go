package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/obfuscate"
)

var errUndecodable = errors.New("payload could not be decoded with this salt")

func newDecodeCmd() *cobra.Command {
	var salt, date string
	cmd := &cobra.Command{
		Use:   "decode CIPHERTEXT",
		Short: "Decode an obfuscated dish payload (debugging)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if salt == "" {
				if date == "" {
					return errors.New("one of --salt or --date is required")
				}
				t, err := daily.ParseKey(date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				salt = daily.Salt(t)
			}
			raw := obfuscate.Deobfuscate(args[0], salt)
			if raw == nil {
				return errUndecodable
			}
			var out bytes.Buffer
			if err := json.Indent(&out, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "salt the payload was obfuscated with")
	cmd.Flags().StringVar(&date, "date", "", "derive the salt from a YYYY-MM-DD date instead")
	return cmd
}
