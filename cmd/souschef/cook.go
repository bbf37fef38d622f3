package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/souschef/internal/conversation"
	"github.com/hammamikhairi/souschef/internal/display"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/recipe"
	"github.com/hammamikhairi/souschef/internal/speech"
	"github.com/hammamikhairi/souschef/internal/storage"
)

type cookOptions struct {
	recipeFile string
	recipeID   string
	sample     string
	user       string
	noVoice    bool
	noAI       bool
	noTUI      bool
}

func newCookCmd(a *app) *cobra.Command {
	var o cookOptions
	cmd := &cobra.Command{
		Use:   "cook",
		Short: "Start a guided cooking session",
		Long: `Walks through a recipe one step at a time. Say or type "next", "repeat",
"ingredients" or "stop", or ask any cooking question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cook(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.recipeFile, "recipe-file", "", "load the recipe from a JSON or YAML file")
	f.StringVar(&o.recipeID, "recipe-id", "", "cook a recipe stored in the database")
	f.StringVar(&o.sample, "sample", "", "cook a built-in sample (toast, scrambled-eggs, vegetable-stir-fry)")
	f.StringVar(&o.user, "user", "", "record the session in this user's history and profile")
	f.BoolVar(&o.noVoice, "no-voice", false, "disable speech output and voice input")
	f.BoolVar(&o.noAI, "no-ai", false, "use keyword matching only, even if a completion service is configured")
	f.BoolVar(&o.noTUI, "no-tui", false, "use plain stdin/stdout instead of the terminal UI")
	cmd.MarkFlagsMutuallyExclusive("recipe-file", "recipe-id", "sample")
	cmd.MarkFlagsOneRequired("recipe-file", "recipe-id", "sample")
	return cmd
}

func (a *app) cook(cmd *cobra.Command, o cookOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.openDB()
	if err != nil {
		return err
	}
	r, err := a.loadRecipe(ctx, db, o)
	if err != nil {
		return err
	}

	userID, err := a.user(cmd, db, o.user)
	if err != nil {
		return err
	}
	var profile *domain.UserModel
	if userID != 0 {
		if o.recipeID == "" {
			// History rows need the recipe in the database.
			if r.ID, err = a.storeRecipe(ctx, db, r, userID); err != nil {
				return err
			}
		}
		profile, err = db.LoadProfile(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			a.log.Warn("loading profile for %s: %v", o.user, err)
		}
	}

	useTUI := !o.noTUI && display.IsTerminal()
	var (
		ui       *display.UI
		notifier *conversation.CLINotifier
		typed    domain.Transcriber
	)
	if useTUI {
		ui = display.NewUI()
		notifier = conversation.NewCLINotifier(a.log, ui.Printf)
		typed = conversation.NewLineTranscriber(ui.InputChan(), 0)
	} else {
		notifier = conversation.NewCLINotifier(a.log, nil)
		if !display.IsTerminal() {
			notifier.Plain()
		}
		typed = conversation.NewReaderTranscriber(os.Stdin, 0)
	}

	voiceOn := a.cfg.Dialogue.Voice && !o.noVoice
	listen := typed
	if voiceOn && a.cfg.Whisper.Enabled() {
		w := a.cfg.Whisper
		listen = speech.NewEar(w.Bin, w.Model, a.log,
			speech.WithInitialSilence(w.InitialSilence),
			speech.WithEndSilence(w.EndSilence),
		)
		a.log.Info("voice input enabled (bin=%s, model=%s)", w.Bin, w.Model)
	}

	opts := []engine.Option{
		engine.WithNotifier(notifier),
		engine.WithVoice(a.synthesizer(voiceOn)),
		engine.WithTextFallback(typed),
	}
	if ui != nil {
		opts = append(opts, engine.WithProgressHook(ui.SetProgress))
	}
	eng := a.newEngine(db, a.agent(o.noAI), opts...)

	g, err := eng.Start(ctx, r, engine.StartOptions{UserID: o.user, Profile: profile})
	if err != nil {
		return err
	}

	fmt.Println(display.RenderBanner())
	final, err := a.runDialogue(ctx, eng, g, listen, ui)
	if err != nil {
		return err
	}

	// Persist even if the user hit Ctrl-C.
	pctx := context.WithoutCancel(ctx)
	if userID != 0 {
		a.recordSession(pctx, db, eng, userID, r.ID, g.Session.ID, final)
	}
	_, summary, err := eng.Status(pctx, g.Session.ID)
	if err == nil {
		fmt.Println()
		fmt.Println(display.BannerStyle.Render("Learning summary:"))
		for _, line := range summary.Lines() {
			fmt.Println("  " + line)
		}
	}
	return nil
}

// runDialogue drives the session, alongside the terminal UI when there
// is one. Quitting the UI cancels the dialogue and vice versa.
func (a *app) runDialogue(ctx context.Context, eng *engine.Engine, g *engine.Greeting, listen domain.Transcriber, ui *display.UI) (engine.Progress, error) {
	var final engine.Progress
	run := func(ctx context.Context) error {
		p, err := eng.Run(ctx, g, listen)
		final = p
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if ui == nil {
		err := run(ctx)
		return final, err
	}

	grp, gctx := errgroup.WithContext(ctx)
	dctx, cancel := context.WithCancel(gctx)
	grp.Go(func() error {
		defer cancel()
		return ui.Run()
	})
	grp.Go(func() error {
		defer ui.Quit()
		if !ui.WaitReady() {
			return nil
		}
		return run(dctx)
	})
	err := grp.Wait()
	return final, err
}

func (a *app) loadRecipe(ctx context.Context, db *storage.SQLiteStore, o cookOptions) (*domain.Recipe, error) {
	switch {
	case o.recipeFile != "":
		return recipe.LoadFile(o.recipeFile)
	case o.recipeID != "":
		r, err := db.Get(ctx, o.recipeID)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", o.recipeID, err)
		}
		return r, nil
	default:
		r, err := recipe.NewMemorySource(a.log).Get(ctx, o.sample)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", o.sample, err)
		}
		return r, nil
	}
}

// storeRecipe returns the ID of an identical stored recipe, saving r
// only when there is none.
func (a *app) storeRecipe(ctx context.Context, db *storage.SQLiteStore, r *domain.Recipe, userID int64) (string, error) {
	id, err := db.FindRecipe(ctx, r)
	switch {
	case err == nil:
		a.log.Debug("recipe %q already stored as %s", r.Name, id)
		return id, nil
	case !errors.Is(err, domain.ErrNotFound):
		return "", err
	}
	return db.SaveRecipe(ctx, r, userID)
}

// synthesizer returns the Azure voice when it is configured and an audio
// device is available, and a silent one otherwise.
func (a *app) synthesizer(voiceOn bool) domain.Synthesizer {
	s := a.cfg.Speech
	if !voiceOn {
		return speech.NewSilent(a.log)
	}
	if !s.Enabled() {
		a.log.Info("TTS disabled: set %s and %s to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		return speech.NewSilent(a.log)
	}

	player, err := speech.NewPlayer(a.log)
	if err != nil {
		a.log.Error("audio player init failed, speech disabled: %v", err)
		return speech.NewSilent(a.log)
	}
	tts := speech.NewAzureClient(s.Key, s.Region, a.log,
		speech.WithVoice(s.Voice),
		speech.WithRate(s.Rate),
	)
	a.log.Info("TTS enabled (voice=%s, region=%s)", s.Voice, s.Region)
	return speech.NewVoice(tts, player, s.CacheDir, a.log)
}

// recordSession writes the outcome to the user's history and saves what
// was learned about them.
func (a *app) recordSession(ctx context.Context, db *storage.SQLiteStore, eng *engine.Engine, userID int64, recipeID, sessionID string, p engine.Progress) {
	lastStep := p.Step - 1
	if p.Completed {
		lastStep = p.TotalSteps
		if err := db.MarkCooked(ctx, userID, recipeID, false); err != nil {
			a.log.Error("marking %s cooked: %v", recipeID, err)
		}
	}
	if err := db.RecordProgress(ctx, userID, recipeID, lastStep); err != nil {
		a.log.Error("recording progress: %v", err)
	}

	session, err := eng.Session(ctx, sessionID)
	if err != nil {
		a.log.Error("loading session %s: %v", sessionID, err)
		return
	}
	if err := db.SaveProfile(ctx, userID, session.Model); err != nil {
		a.log.Error("saving profile: %v", err)
	}
}
