// itemtool inspects, edits and stores serialized item records.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/codec"
	"github.com/l1jgo/itemstack/internal/config"
	"github.com/l1jgo/itemstack/internal/data"
	"github.com/l1jgo/itemstack/internal/item"
	"github.com/l1jgo/itemstack/internal/locale"
	"github.com/l1jgo/itemstack/internal/persist"
	"github.com/l1jgo/itemstack/internal/scripting"
	"github.com/l1jgo/itemstack/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

func printUsage() {
	fmt.Println("Usage: itemtool <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  show        Print a record and the item it materializes to")
	fmt.Println("  plain       Rewrite a record file with plain attributes")
	fmt.Println("  structured  Rewrite a record file with structured attributes")
	fmt.Println("  get         Read one owner key:   -owner mymod -key level")
	fmt.Println("  put         Write one owner key:  -owner mymod -key level -value 5")
	fmt.Println("  script      Run a Lua item hook:  -owner mymod -hook on_use")
	fmt.Println("              put and script journal the edit when -holder is given")
	fmt.Println("  store       Save record files as a holder's inventory")
	fmt.Println("  load        Print a holder's stored inventory")
	fmt.Println("  find        List stored records equal to a record, any quantity")
	fmt.Println("  place       Place a block record and break it again: -x 0 -y 64 -z 0")
	fmt.Println("  locale      Bind a plugin's messages: -plugin mymod -lang zh-TW")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}
	if err := run(cmd, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	config string
	owner  string
	key    string
	value  string
	hook   string
	holder string
	plugin string
	lang   string

	x, y, z int
}

func run(cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var o options
	fs.StringVar(&o.config, "config", os.Getenv("ITEMSTACK_CONFIG"), "TOML config file (defaults when empty)")
	fs.StringVar(&o.owner, "owner", "", "owner id scoping get/put/script")
	fs.StringVar(&o.key, "key", "", "attribute key")
	fs.StringVar(&o.value, "value", "", "YAML value to store")
	fs.StringVar(&o.hook, "hook", "", "Lua hook function name")
	fs.StringVar(&o.holder, "holder", "", "inventory holder for store/load")
	fs.StringVar(&o.plugin, "plugin", "", "plugin id for locale")
	fs.StringVar(&o.lang, "lang", "", "language tag for locale")
	fs.IntVar(&o.x, "x", 0, "block x for place")
	fs.IntVar(&o.y, "y", 0, "block y for place")
	fs.IntVar(&o.z, "z", 0, "block z for place")
	_ = fs.Parse(args)

	cfg := config.Defaults()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	env, err := newEnv(cfg, log)
	if err != nil {
		return err
	}
	t := &tool{cfg: cfg, log: log, env: env, opts: o}

	commands := map[string]func(files []string) error{
		"show":       t.show,
		"plain":      t.rewrite(item.FormPlain),
		"structured": t.rewrite(item.FormStructured),
		"get":        t.get,
		"put":        t.put,
		"script":     t.script,
		"store":      t.store,
		"load":       t.load,
		"find":       t.find,
		"place":      t.place,
		"locale":     t.locale,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	return fn(fs.Args())
}

// newEnv loads the item definitions and installs the resulting
// environment as the process default.
func newEnv(cfg *config.Config, log *zap.Logger) (*item.Env, error) {
	table, err := data.LoadItemTable(cfg.Data.DefaultNamespace, cfg.Data.ItemFiles...)
	if err != nil {
		return nil, fmt.Errorf("load item table: %w", err)
	}
	log.Debug("item definitions loaded", zap.Int("count", table.Count()))

	var c codec.Codec = codec.JSON{}
	if cfg.Item.DecodeCacheSize > 0 {
		if c, err = codec.NewCached(codec.JSON{}, cfg.Item.DecodeCacheSize); err != nil {
			return nil, fmt.Errorf("decode cache: %w", err)
		}
	}

	env := item.NewEnv(table, world.Containers{}, c, log)
	env.Quantity = item.QuantityPolicy{
		Enforce: cfg.Item.EnforceQuantity,
		Min:     cfg.Item.MinQuantity,
		Max:     cfg.Item.MaxQuantity,
	}
	item.SetDefault(env)
	return env, nil
}

type tool struct {
	cfg  *config.Config
	log  *zap.Logger
	env  *item.Env
	opts options
}

func (t *tool) owner() (item.Owner, error) {
	if t.opts.owner == "" {
		return nil, errors.New("-owner is required")
	}
	return item.OwnerID(t.opts.owner), nil
}

func oneFile(files []string) (string, error) {
	if len(files) != 1 {
		return "", fmt.Errorf("expected one record file, got %d", len(files))
	}
	return files[0], nil
}

func readRecord(path string) (*item.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	rec := &item.Record{}
	if err := yaml.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return rec, nil
}

func writeRecord(path string, rec *item.Record) error {
	out, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// preferredForm converts rec to the configured storage form.
func (t *tool) preferredForm(rec *item.Record) error {
	if t.cfg.Item.Form == item.FormStructured.String() {
		_, err := rec.ToStructured()
		return err
	}
	rec.ToPlain()
	return nil
}

func (t *tool) show(files []string) error {
	for _, path := range files {
		rec, err := readRecord(path)
		if err != nil {
			return err
		}
		fmt.Println(rec)
		live := rec.Materialize()
		name := live.TypeKey().String()
		if st, ok := live.(*world.ItemStack); ok && !st.IsAir() {
			name = st.Name()
		}
		fp := rec.Fingerprint()
		fmt.Printf("  %s x%d  form=%s  fingerprint=%x\n", name, live.Quantity(), rec.Form(), fp[:8])
	}
	return nil
}

func (t *tool) rewrite(form item.Form) func([]string) error {
	return func(files []string) error {
		for _, path := range files {
			rec, err := readRecord(path)
			if err != nil {
				return err
			}
			if form == item.FormStructured {
				if _, err := rec.ToStructured(); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			} else {
				rec.ToPlain()
			}
			if err := writeRecord(path, rec); err != nil {
				return err
			}
		}
		return nil
	}
}

func (t *tool) get(files []string) error {
	path, err := oneFile(files)
	if err != nil {
		return err
	}
	owner, err := t.owner()
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	ed := rec.Editor(owner)
	if t.opts.key == "" {
		fmt.Println(strings.Join(ed.Keys(), "\n"))
		return nil
	}
	v := item.Get(ed, t.opts.key, attr.Null())
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func (t *tool) put(files []string) error {
	path, err := oneFile(files)
	if err != nil {
		return err
	}
	owner, err := t.owner()
	if err != nil {
		return err
	}
	if t.opts.key == "" {
		return errors.New("-key is required")
	}
	var v attr.Value
	if err := yaml.Unmarshal([]byte(t.opts.value), &v); err != nil {
		return fmt.Errorf("parse -value: %w", err)
	}

	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	ed := rec.Editor(owner)
	if v.IsContainer() {
		err = ed.PutNested(t.opts.key, v)
	} else {
		err = ed.Put(t.opts.key, v)
	}
	if err != nil {
		return err
	}
	return t.saveEdit(path, owner, rec)
}

func (t *tool) script(files []string) error {
	path, err := oneFile(files)
	if err != nil {
		return err
	}
	owner, err := t.owner()
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}

	engine, err := scripting.NewEngine(t.cfg.Scripting.Dir, t.env, t.log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()

	result, err := engine.RunItemHook(t.opts.hook, owner, rec)
	if err != nil {
		return err
	}
	if !result.IsNull() {
		fmt.Println(result)
	}
	return t.saveEdit(path, owner, rec)
}

// saveEdit writes an edited record back and, when a holder is given,
// journals the edit.
func (t *tool) saveEdit(path string, owner item.Owner, rec *item.Record) error {
	if err := t.preferredForm(rec); err != nil {
		return err
	}
	if err := writeRecord(path, rec); err != nil {
		return err
	}
	if t.opts.holder == "" {
		return nil
	}
	db, ctx, cancel, err := t.openStore()
	if err != nil {
		return err
	}
	defer cancel()
	defer db.Close()

	entry := persist.EditEntry(t.opts.holder, owner.OwnerID(), rec)
	return persist.NewJournalRepo(db).Write(ctx, []persist.JournalEntry{entry})
}

func (t *tool) openStore() (*persist.DB, context.Context, context.CancelFunc, error) {
	if t.opts.holder == "" {
		return nil, nil, nil, errors.New("-holder is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := persist.NewDB(ctx, t.cfg.Database, t.log)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	return db, ctx, cancel, nil
}

// store packs the record files into an inventory, merging equal stacks,
// and saves the result in the holder's slots.
func (t *tool) store(files []string) error {
	db, ctx, cancel, err := t.openStore()
	if err != nil {
		return err
	}
	defer cancel()
	defer db.Close()

	inv := world.NewInventory()
	for _, path := range files {
		rec, err := readRecord(path)
		if err != nil {
			return err
		}
		st, ok := rec.Materialize().(*world.ItemStack)
		if !ok || st.IsAir() {
			t.log.Warn("skipping record without an item type", zap.String("file", path),
				zap.String("item_type", rec.ItemType()))
			continue
		}
		if left := inv.AddItem(st.Def, st.Count, st.Components); left > 0 {
			return fmt.Errorf("%s: inventory full, %d items left over", path, left)
		}
	}

	snapshot := inv.Snapshot(t.env)
	for _, rec := range snapshot {
		if err := t.preferredForm(rec); err != nil {
			return err
		}
	}
	if err := persist.NewRecordRepo(db).SaveInventory(ctx, t.opts.holder, snapshot); err != nil {
		return err
	}
	printStat("records stored", len(snapshot))
	printStat("inventory weight", int(inv.TotalWeight()))
	return nil
}

func (t *tool) load(_ []string) error {
	db, ctx, cancel, err := t.openStore()
	if err != nil {
		return err
	}
	defer cancel()
	defer db.Close()

	records, err := persist.NewRecordRepo(db).LoadInventory(ctx, t.env, t.opts.holder)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	n, err := persist.NewJournalRepo(db).MarkProcessed(ctx)
	if err != nil {
		return err
	}
	t.log.Debug("journal entries processed", zap.Int64("count", n))
	return nil
}

func (t *tool) find(files []string) error {
	path, err := oneFile(files)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(ctx, t.cfg.Database, t.log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	rows, err := persist.NewRecordRepo(db).FindByFingerprint(ctx, rec)
	if err != nil {
		return err
	}
	for _, row := range rows {
		// a shared fingerprint is not proof of equality
		if !rec.EqualIgnoringQuantity(row.Record(t.env)) {
			continue
		}
		fmt.Printf("  %s slot %d: %s x%d\n", row.Holder, row.Slot, row.ItemType, row.Quantity)
	}
	return nil
}

func (t *tool) place(files []string) error {
	path, err := oneFile(files)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	st, ok := rec.Materialize().(*world.ItemStack)
	if !ok || st.IsAir() {
		return fmt.Errorf("%s: item type %q does not resolve", path, rec.ItemType())
	}
	inv := world.NewInventory()
	inv.AddItem(st.Def, st.Count, st.Components)

	b, ok := inv.PlaceBlock(inv.Items[0].ObjectID, int32(t.opts.x), int32(t.opts.y), int32(t.opts.z))
	if !ok {
		return fmt.Errorf("%s: %s is not a block", path, rec.ItemType())
	}
	fmt.Printf("  placed block %d at %d,%d,%d\n", b.ID, b.X, b.Y, b.Z)
	fmt.Println(t.env.FromBlock(b))

	inv.PickUp(t.env, b)
	printStat("stacks after pick up", inv.Size())
	return nil
}

// toolMessages are the texts itemtool looks up per plugin. Sample is the
// record shown as an example in generated documentation.
type toolMessages struct {
	Stored  string       `yaml:"stored"`
	Loaded  string       `yaml:"loaded"`
	Missing string       `yaml:"missing"`
	Sample  *item.Record `yaml:"sample"`
}

func defaultMessages() *toolMessages {
	return &toolMessages{
		Stored:  "Stored %d items",
		Loaded:  "Loaded %d items",
		Missing: "No items found",
		Sample:  item.FromParts("minecraft:stone", 1, ""),
	}
}

func (t *tool) locale(_ []string) error {
	if t.opts.plugin == "" {
		return errors.New("-plugin is required")
	}
	def, err := language.Parse(t.cfg.Locale.Default)
	if err != nil {
		return fmt.Errorf("default locale: %w", err)
	}
	tag := def
	if t.opts.lang != "" {
		if tag, err = language.Parse(t.opts.lang); err != nil {
			return fmt.Errorf("parse -lang: %w", err)
		}
	}

	svc := locale.NewService(t.cfg.Locale.Dir, def, t.cfg.Locale.Charset, t.log)
	if _, err := svc.Scan(t.opts.plugin); err != nil {
		return err
	}
	loc, err := svc.Get(t.opts.plugin, tag)
	if errors.Is(err, locale.ErrNoLocale) {
		loc, err = svc.Create(t.opts.plugin, tag)
	}
	if err != nil {
		return err
	}

	msgs := defaultMessages()
	if err := loc.Bind(msgs); err != nil {
		return err
	}
	printOK(fmt.Sprintf("%s (%s)", loc.Path(), loc.Tag))
	fmt.Printf("  stored:  %s\n  loaded:  %s\n  missing: %s\n  sample:  %s\n",
		msgs.Stored, msgs.Loaded, msgs.Missing, msgs.Sample)
	return nil
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Record output goes to stdout; keep logs off it.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
