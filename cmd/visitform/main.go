// Terminal host for recording field sales visits
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/door2door/fieldvisits/internal/client"
	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/formsession"
	"github.com/door2door/fieldvisits/internal/core/services/visits"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

const pageSize = 10

const (
	menuNew    = "+ New visit"
	menuNext   = "Next page →"
	menuPrev   = "← Previous page"
	menuLogout = "Log out"
	menuQuit   = "Quit"
)

// api is the part of the visits client the host needs
type api interface {
	formsession.Persister
	Login(ctx context.Context, password string) error
	IsAuthenticated(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
	List(ctx context.Context, page, limit int) (*visits.Page, error)
	Get(ctx context.Context, id string) (*domain.Visit, error)
	Delete(ctx context.Context, id string) error
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if cfg.IsDevelopment() {
		level = slog.LevelInfo
	}
	log := logger.InitializeTo(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, errAborted) {
		log.Error("visitform exited with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	kv, closeKV, err := openRecoveryStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeKV()

	c, err := client.New(cfg.APIBaseURL, 15*time.Second, log)
	if err != nil {
		return err
	}

	a := &app{
		api:      c,
		kv:       kv,
		recovery: formsession.NewRecoveryStore(kv, log),
		prompt:   newSurveyPrompter(),
		config:   formsession.Config{DraftDebounce: cfg.DraftDebounce},
		logger:   log,
	}
	return a.run(ctx)
}

// app is the host: login, the visit list, and one form at a time
type app struct {
	api      api
	kv       formsession.KeyValueStore
	recovery *formsession.RecoveryStore
	prompt   prompter
	config   formsession.Config
	clock    formsession.Clock
	logger   *slog.Logger
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.prompt.Out(), format, args...)
}

func (a *app) run(ctx context.Context) error {
	if err := a.login(ctx); err != nil {
		return err
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		list, err := a.api.List(ctx, page, pageSize)
		if err != nil {
			return fmt.Errorf("load visits: %w", err)
		}

		options := []string{menuNew}
		byLabel := make(map[string]domain.Visit, len(list.Visits))
		for _, v := range list.Visits {
			label := visitLabel(v)
			options = append(options, label)
			byLabel[label] = v
		}
		if list.HasPrevPage {
			options = append(options, menuPrev)
		}
		if list.HasNextPage {
			options = append(options, menuNext)
		}
		options = append(options, menuLogout, menuQuit)

		a.printf("\nVisits (page %d of %d, %d total)\n", list.CurrentPage, max(list.TotalPages, 1), list.TotalVisits)
		choice, err := a.prompt.Select("Choose", options, menuNew)
		if err != nil {
			return err
		}

		switch choice {
		case menuNew:
			err = a.newVisit(ctx)
		case menuPrev:
			page--
		case menuNext:
			page++
		case menuLogout:
			return a.api.Logout(ctx)
		case menuQuit:
			return nil
		default:
			err = a.visitActions(ctx, byLabel[choice])
		}
		if err != nil {
			return err
		}
	}
}

func (a *app) login(ctx context.Context) error {
	if ok, err := a.api.IsAuthenticated(ctx); err == nil && ok {
		return nil
	}
	for {
		password, err := a.prompt.Password("Password", true)
		if err != nil {
			return err
		}
		err = a.api.Login(ctx, password)
		if err == nil {
			return nil
		}
		a.printf("Login failed: %v\n", err)
	}
}

func (a *app) visitActions(ctx context.Context, v domain.Visit) error {
	choice, err := a.prompt.Select(visitLabel(v), []string{"Edit", "Delete", "Back"}, "Edit")
	if err != nil {
		return err
	}

	switch choice {
	case "Edit":
		full, err := a.api.Get(ctx, v.ID.String())
		if err != nil {
			return fmt.Errorf("load visit: %w", err)
		}
		return a.openForm(ctx, formsession.Options{Existing: full})
	case "Delete":
		sure, err := a.prompt.Confirm("Delete this visit?", false)
		if err != nil || !sure {
			return err
		}
		if err := a.api.Delete(ctx, v.ID.String()); err != nil {
			a.printf("Delete failed: %v\n", err)
		}
	}
	return nil
}

// newVisit starts a form, offering to resume one a crashed run left behind
func (a *app) newVisit(ctx context.Context) error {
	opts := formsession.Options{Recovery: a.recovery}

	if key, ok, err := a.kv.Get(ctx, activeSessionKey); err != nil {
		a.logger.Warn("Could not read active session key", logger.Err(err))
	} else if ok {
		resume, err := a.prompt.Confirm("Resume the visit that was interrupted?", true)
		if err != nil {
			return err
		}
		if resume {
			opts.SessionKey = key
		}
	}

	return a.openForm(ctx, opts)
}

func (a *app) openForm(ctx context.Context, opts formsession.Options) error {
	host := newFormHost()
	opts.Persister = a.api
	opts.Host = host
	opts.Clock = a.clock
	opts.Logger = a.logger
	opts.Config = a.config

	session, err := formsession.New(ctx, opts)
	if err != nil {
		return err
	}

	if !session.IsEditing() {
		if err := a.kv.Set(ctx, activeSessionKey, session.SessionKey()); err != nil {
			a.logger.Warn("Could not store active session key", logger.Err(err))
		}
	}

	runner := &formRunner{session: session, host: host, prompt: a.prompt, logger: a.logger}
	recordID, err := runner.run(ctx)

	if session.Unload(context.WithoutCancel(ctx)) {
		a.printf("Unsaved changes were discarded\n")
	}
	if !session.IsEditing() {
		if rmErr := a.kv.Remove(context.WithoutCancel(ctx), activeSessionKey); rmErr != nil {
			a.logger.Warn("Could not clear active session key", logger.Err(rmErr))
		}
	}

	if errors.Is(err, errAborted) {
		return nil
	}
	if err == nil && recordID != "" {
		a.printf("Visit %s saved\n", recordID)
	}
	return err
}

func visitLabel(v domain.Visit) string {
	label := fmt.Sprintf("%s  %s", v.VisitDate.Format(domain.DateLayout), v.PracticeName)
	if v.Status == domain.VisitStatusDraft {
		label += "  [draft]"
	}
	return label + "  #" + v.ID.String()[:8]
}
