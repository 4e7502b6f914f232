// Package cli implements the command-line frontend of the module.
//
// The frontend exposes the envelope codec and the transaction controller as
// commands: seal a record into an envelope, verify an envelope, submit a
// record to the (simulated) settlement layer, and inspect the journal of
// issued envelopes.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/harvest"
	"go.dedis.ch/harvest/core/envelope"
	_ "go.dedis.ch/harvest/core/envelope/json"
	"go.dedis.ch/harvest/core/store/journal"
	"go.dedis.ch/harvest/core/store/kv"
	"go.dedis.ch/harvest/core/tx"
	sjson "go.dedis.ch/harvest/serde/json"
	"golang.org/x/xerrors"
)

// NewApp returns the command-line application.
func NewApp() *urfave.App {
	return &urfave.App{
		Name:  "harvest",
		Usage: "issue, verify and settle provenance records",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  "config",
				Usage: "path of the YAML configuration file",
			},
			&urfave.StringFlag{
				Name:  "secret",
				Usage: "shared secret, overriding the configuration",
			},
			&urfave.StringFlag{
				Name:  "db",
				Usage: "path of the journal database, overriding the configuration",
			},
		},
		Commands: []*urfave.Command{
			{
				Name:  "seal",
				Usage: "sign a record and print the envelope",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  "id",
						Usage: "batch identifier, minted when omitted",
					},
					&urfave.StringFlag{
						Name:     "actor",
						Usage:    "producer vouching for the record",
						Required: true,
					},
					&urfave.StringFlag{
						Name:     "kind",
						Usage:    "classification of the record",
						Required: true,
					},
					&urfave.StringSliceFlag{
						Name:  "attr",
						Usage: "extension field as key=value, repeatable",
					},
				},
				Action: sealAction,
			},
			{
				Name:      "verify",
				Usage:     "verify an envelope and print its record",
				ArgsUsage: "<envelope>",
				Action:    verifyAction,
			},
			{
				Name:  "submit",
				Usage: "submit a transaction to the settlement layer",
				Flags: []urfave.Flag{
					&urfave.BoolFlag{
						Name:  "fail",
						Usage: "make the simulated submission fail",
					},
				},
				Action: submitAction,
			},
			{
				Name:  "journal",
				Usage: "inspect the journal of issued envelopes",
				Subcommands: []*urfave.Command{
					{
						Name:   "list",
						Usage:  "list the identifiers of the issuances",
						Action: journalListAction,
					},
					{
						Name:      "get",
						Usage:     "print the envelope issued for a record",
						ArgsUsage: "<id>",
						Action:    journalGetAction,
					},
					{
						Name:      "rm",
						Usage:     "remove the issuance of a record",
						ArgsUsage: "<id>",
						Action:    journalRemoveAction,
					},
				},
			},
		},
	}
}

// makeConfig assembles the configuration from the file, the environment and
// the flags.
func makeConfig(c *urfave.Context) (Config, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if value := c.String("secret"); value != "" {
		cfg.Secret = value
	}

	if value := c.String("db"); value != "" {
		cfg.DBPath = value
	}

	return cfg, nil
}

func sealAction(c *urfave.Context) error {
	cfg, err := makeConfig(c)
	if err != nil {
		return err
	}

	if cfg.Secret == "" {
		return xerrors.New("no secret configured")
	}

	record := envelope.Record{
		ID:    c.String("id"),
		Actor: c.String("actor"),
		Kind:  c.String("kind"),
		Attrs: parseAttrs(c.StringSlice("attr")),
	}

	if record.ID == "" {
		record.ID = xid.New().String()
	}

	codec := envelope.NewCodec(sjson.NewContext())

	sealed, err := codec.Sign(record, []byte(cfg.Secret))
	if err != nil {
		return xerrors.Errorf("failed to seal: %v", err)
	}

	db, err := kv.New(cfg.DBPath)
	if err != nil {
		return xerrors.Errorf("failed to open journal: %v", err)
	}

	defer db.Close()

	err = journal.New(db).Append(record.ID, sealed)
	if err != nil {
		return xerrors.Errorf("failed to journal: %v", err)
	}

	fmt.Fprintln(c.App.Writer, sealed)

	return nil
}

func verifyAction(c *urfave.Context) error {
	cfg, err := makeConfig(c)
	if err != nil {
		return err
	}

	text := c.Args().First()
	if text == "" {
		return xerrors.New("missing envelope argument")
	}

	codec := envelope.NewCodec(sjson.NewContext())

	payload, err := codec.Verify(text, []byte(cfg.Secret))
	if err != nil {
		kind, ok := envelope.InvalidityOf(err)
		if ok && kind.IsHostile() {
			harvest.Logger.Error().Msg("envelope shows signs of tampering")
		}

		return xerrors.Errorf("envelope refused: %v", err)
	}

	fmt.Fprintf(c.App.Writer, "valid: %s sealed by %s (%s)\n",
		payload.ID, payload.Actor, payload.Kind)

	return nil
}

func submitAction(c *urfave.Context) error {
	cfg, err := makeConfig(c)
	if err != nil {
		return err
	}

	ctrl := tx.NewController(tx.Param{
		RequiredConfirmations: cfg.Confirmations,
		MaxRetries:            cfg.MaxRetries,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for state := range ctrl.Watch(ctx) {
			harvest.Logger.Info().
				Stringer("status", state.Status).
				Int("confirmations", state.Confirmations).
				Msg("transition")
		}
	}()

	submit := func(ctx context.Context) (string, error) {
		if c.Bool("fail") {
			return "", xerrors.New("settlement layer unavailable")
		}

		return "0x" + xid.New().String(), nil
	}

	final := ctrl.Execute(ctx, submit)
	if final.Status == tx.StatusFailed {
		return xerrors.Errorf("submission failed: %s", final.Error)
	}

	fmt.Fprintf(c.App.Writer, "confirmed: %s (%d confirmations)\n",
		final.TxID, final.Confirmations)

	return nil
}

func journalListAction(c *urfave.Context) error {
	jnl, closer, err := openJournal(c)
	if err != nil {
		return err
	}

	defer closer()

	return jnl.Range(func(id, sealed string) error {
		fmt.Fprintln(c.App.Writer, id)
		return nil
	})
}

func journalGetAction(c *urfave.Context) error {
	id := c.Args().First()
	if id == "" {
		return xerrors.New("missing identifier argument")
	}

	jnl, closer, err := openJournal(c)
	if err != nil {
		return err
	}

	defer closer()

	sealed, err := jnl.Get(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, sealed)

	return nil
}

func journalRemoveAction(c *urfave.Context) error {
	id := c.Args().First()
	if id == "" {
		return xerrors.New("missing identifier argument")
	}

	jnl, closer, err := openJournal(c)
	if err != nil {
		return err
	}

	defer closer()

	return jnl.Remove(id)
}

func openJournal(c *urfave.Context) (journal.Journal, func(), error) {
	cfg, err := makeConfig(c)
	if err != nil {
		return journal.Journal{}, nil, err
	}

	db, err := kv.New(cfg.DBPath)
	if err != nil {
		return journal.Journal{}, nil, xerrors.Errorf("failed to open journal: %v", err)
	}

	return journal.New(db), func() { db.Close() }, nil
}

func parseAttrs(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}

	attrs := make(map[string]string)
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			attrs[parts[0]] = parts[1]
		}
	}

	return attrs
}
