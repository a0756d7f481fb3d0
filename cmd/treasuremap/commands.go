package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"treasuremap/internal/core"
	"treasuremap/pkg/domain"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return usageError{msg: err.Error()}
	}
	return nil
}

// readBoardFile loads an exchange document or a bare payload from path.
func readBoardFile(path string) (domain.MapData, string, error) {
	if path == "" {
		return domain.MapData{}, "", usageError{msg: "-file is required"}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.MapData{}, "", err
	}
	return core.Import(raw)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printSummary(m domain.StoredMap) {
	fmt.Fprintf(a.stdout, "%s\t%s\t%d%s\n", m.ID, m.ChestSignature, m.SortOrder, copyLabel(m.MapData))
}

// copyLabel renders the "n/m" copy counter shown for almost-copies.
func copyLabel(d domain.MapData) string {
	if d.NumberOf > 0 && d.NumberOf <= d.OutOf {
		return fmt.Sprintf("\t%d/%d", d.NumberOf, d.OutOf)
	}
	return ""
}

func runSave(ctx context.Context, a *app, args []string) error {
	fs := a.flags("save")
	file := fs.String("file", "", "board file (exchange document or bare payload)")
	notes := fs.String("notes", "", "notes HTML, overrides notes from the file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	data, fileNotes, err := readBoardFile(*file)
	if err != nil {
		return err
	}
	if *notes != "" {
		fileNotes = *notes
	}
	session := core.NewSession(a.svc)
	session.SetBoard(data, fileNotes)
	saved, err := session.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "saved %s (signature %s, sort order %d)\n", saved.ID, saved.ChestSignature, saved.SortOrder)
	return nil
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := a.flags("update")
	id := fs.String("id", "", "map id")
	file := fs.String("file", "", "board file (exchange document or bare payload)")
	keepNotes := fs.Bool("keep-notes", false, "keep the stored notes instead of the file's")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usageError{msg: "-id is required"}
	}
	data, notes, err := readBoardFile(*file)
	if err != nil {
		return err
	}
	session := core.NewSession(a.svc)
	if _, err := session.Load(ctx, *id); err != nil {
		return err
	}
	if *keepNotes {
		_, notes = session.Snapshot()
	}
	session.SetBoard(data, notes)
	saved, err := session.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "updated %s (signature %s, sort order %d)\n", saved.ID, saved.ChestSignature, saved.SortOrder)
	return nil
}

func runGet(ctx context.Context, a *app, args []string) error {
	id, err := requireOne(args, "map id")
	if err != nil {
		return err
	}
	m, err := a.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return a.printJSON(m)
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("search")
	var c domain.ChestCounts
	fs.IntVar(&c.Small, "sm", 0, "small chests")
	fs.IntVar(&c.Medium, "md", 0, "medium chests")
	fs.IntVar(&c.Large, "lg", 0, "large chests")
	fs.IntVar(&c.ExtraLarge, "xl", 0, "extra large chests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	maps, err := a.svc.Search(ctx, c)
	if err != nil {
		return err
	}
	if len(maps) == 0 {
		fmt.Fprintf(a.stdout, "no maps with signature %s\n", c.Signature())
		return nil
	}
	for _, m := range maps {
		a.printSummary(m)
	}
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return usageError{msg: "list takes no arguments"}
	}
	maps, err := a.svc.ListAll(ctx)
	if err != nil {
		return err
	}
	var group domain.ChestSignature
	for i, m := range maps {
		if i == 0 || m.ChestSignature != group {
			group = m.ChestSignature
			fmt.Fprintf(a.stdout, "# %s\n", group)
		}
		a.printSummary(m)
	}
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	id, err := requireOne(args, "map id")
	if err != nil {
		return err
	}
	if err := a.svc.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted %s\n", id)
	return nil
}

func runReorder(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reorder")
	id := fs.String("id", "", "map id")
	dirStr := fs.String("dir", "", "up|down")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	dir, err := domain.ParseDirection(*dirStr)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	moved, err := a.svc.Reorder(ctx, *id, dir)
	if err != nil {
		return err
	}
	if !moved {
		fmt.Fprintf(a.stdout, "%s is already at the %s of its group\n", *id, map[domain.Direction]string{domain.DirectionUp: "top", domain.DirectionDown: "bottom"}[dir])
		return nil
	}
	fmt.Fprintf(a.stdout, "moved %s %s\n", *id, dir)
	return nil
}

func runCheck(ctx context.Context, a *app, args []string) error {
	fs := a.flags("check")
	file := fs.String("file", "", "board file")
	exclude := fs.String("exclude", "", "map id to leave out of the comparison")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	data, _, err := readBoardFile(*file)
	if err != nil {
		return err
	}
	if err := a.svc.CheckDuplicate(ctx, data, *exclude); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "no duplicate for signature %s\n", data.Signature())
	return nil
}

func runRotate(ctx context.Context, a *app, args []string) error {
	id, err := requireOne(args, "map id")
	if err != nil {
		return err
	}
	m, layout, err := a.svc.Rotations(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s  signature %s%s\n\n", m.ID, m.ChestSignature, copyLabel(m.MapData))
	return renderFourUp(a.stdout, layout)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("export")
	out := fs.String("out", "", "write to this file instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := requireOne(fs.Args(), "map id")
	if err != nil {
		return err
	}
	doc, err := a.svc.ExportMap(ctx, id)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = fmt.Fprintln(a.stdout, string(doc))
		return err
	}
	return os.WriteFile(*out, doc, 0o644)
}

func runImport(_ context.Context, a *app, args []string) error {
	fs := a.flags("import")
	file := fs.String("file", "", "exchange document")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	data, notes, err := readBoardFile(*file)
	if err != nil {
		return err
	}
	board, warnings, err := domain.DecodeBoard(data)
	if err != nil {
		return err
	}
	warnDecode(a, warnings)
	fmt.Fprintf(a.stdout, "signature %s%s, %d warnings, %d bytes of notes\n\n", data.Signature(), copyLabel(data), len(warnings), len(notes))
	return renderBoard(a.stdout, board)
}

func runArchive(ctx context.Context, a *app, args []string) error {
	id, err := requireOne(args, "map id")
	if err != nil {
		return err
	}
	info, err := a.svc.ArchiveExport(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "archived %s as %s (%d bytes)\n", id, info.Key, info.Size)
	return nil
}

func runArchives(ctx context.Context, a *app, args []string) error {
	fs := a.flags("archives")
	id := fs.String("id", "", "only exports of this map")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	infos, err := a.svc.ListArchives(ctx, *id)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(a.stdout, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format(time.RFC3339))
	}
	return nil
}

func runRestore(ctx context.Context, a *app, args []string) error {
	key, err := requireOne(args, "archive key")
	if err != nil {
		return err
	}
	data, notes, err := a.svc.ImportArchive(ctx, key)
	if err != nil {
		return err
	}
	session := core.NewSession(a.svc)
	session.SetBoard(data, notes)
	saved, err := session.SaveAsNew(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "restored %s as %s\n", key, saved.ID)
	return nil
}

func runShare(ctx context.Context, a *app, args []string) error {
	fs := a.flags("share")
	expiry := fs.Duration("expiry", 15*time.Minute, "link lifetime")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	key, err := requireOne(fs.Args(), "archive key")
	if err != nil {
		return err
	}
	url, err := a.svc.ShareURL(ctx, key, *expiry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, url)
	return err
}
