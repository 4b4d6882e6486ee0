// Command jobctl is a terminal client for the job board. It keeps the
// seeker's device state (viewed and saved jobs, alert subscriptions) in a
// local file and talks to the public API for listings.
//
//	jobctl list
//	jobctl view <id>
//	jobctl save <id>
//	jobctl saved
//	jobctl subscribe <role>...
//	jobctl alerts [role...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/alerts"
	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/listing"
	"github.com/saudijob/jobboard/internal/device"
	"github.com/saudijob/jobboard/pkg/logger"
)

type cliConfig struct {
	apiURL  string
	dataDir string
	timeout time.Duration
	debug   bool
}

type app struct {
	api   *apiClient
	store *device.Store
	out   io.Writer
	now   func() time.Time
	log   zerolog.Logger
}

func main() {
	cfg, args := parseFlags()

	level := "warn"
	if cfg.debug {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr, Service: "jobctl"})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, os.Stdout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}
	if err := a.run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "jobctl:", err)
		os.Exit(1)
	}
}

func parseFlags() (cliConfig, []string) {
	cfg := cliConfig{}
	flag.StringVar(&cfg.apiURL, "api", envOr("JOBCTL_API", "http://localhost:8080"), "job board base url")
	flag.StringVar(&cfg.dataDir, "data", envOr("JOBCTL_DATA", defaultDataDir()), "directory for local device state")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "http timeout")
	flag.BoolVar(&cfg.debug, "debug", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: jobctl [flags] list|view <id>|save <id>|saved|subscribe <role>...|alerts [role...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg, flag.Args()
}

func newApp(cfg cliConfig, out io.Writer, log zerolog.Logger) (*app, error) {
	api, err := newAPIClient(cfg.apiURL, cfg.timeout)
	if err != nil {
		return nil, err
	}
	backend, err := device.NewFileBackend(cfg.dataDir)
	if err != nil {
		return nil, err
	}
	return &app{
		api:   api,
		store: device.NewStore(backend),
		out:   out,
		now:   time.Now,
		log:   log,
	}, nil
}

var errUsage = errors.New("unknown command, run jobctl -h")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		return a.list(ctx)
	case "view":
		if len(rest) != 1 {
			return errors.New("view takes one job id")
		}
		return a.view(ctx, rest[0])
	case "save":
		if len(rest) != 1 {
			return errors.New("save takes one job id")
		}
		return a.save(rest[0])
	case "saved":
		return a.saved(ctx)
	case "subscribe":
		return a.subscribe(rest)
	case "alerts":
		return a.alerts(ctx, rest)
	default:
		return errUsage
	}
}

func (a *app) list(ctx context.Context) error {
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return err
	}
	prefs, err := a.store.Load()
	if err != nil {
		return err
	}
	saved := toSet(prefs.SavedJobIDs)
	now := a.now()
	for _, j := range jobs {
		a.printJob(j, now, saved[j.ID])
	}
	return nil
}

// view prints one job. The server view counter is only bumped the first
// time this device opens the job, and a failed bump is not reported.
func (a *app) view(ctx context.Context, id string) error {
	job, err := a.find(ctx, id)
	if err != nil {
		return err
	}

	first, err := a.store.MarkViewed(id)
	if err != nil {
		return err
	}
	if first {
		if err := a.api.RecordView(ctx, id); err != nil {
			a.log.Debug().Err(err).Str("job_id", id).Msg("view not recorded")
		}
	}

	saved, err := a.store.IsSaved(id)
	if err != nil {
		return err
	}
	a.printJob(job, a.now(), saved)
	if job.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", job.Description)
	}
	fmt.Fprintf(a.out, "\ncontact: %s  %s\n", job.PhoneNumber, job.Email)
	return nil
}

func (a *app) save(id string) error {
	saved, err := a.store.ToggleSaved(id)
	if err != nil {
		return err
	}
	if saved {
		fmt.Fprintf(a.out, "saved %s\n", id)
	} else {
		fmt.Fprintf(a.out, "removed %s\n", id)
	}
	return nil
}

// saved lists bookmarked jobs that are still live on the server.
func (a *app) saved(ctx context.Context) error {
	prefs, err := a.store.Load()
	if err != nil {
		return err
	}
	if len(prefs.SavedJobIDs) == 0 {
		fmt.Fprintln(a.out, "no saved jobs")
		return nil
	}
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return err
	}
	want := toSet(prefs.SavedJobIDs)
	now := a.now()
	for _, j := range jobs {
		if want[j.ID] {
			a.printJob(j, now, true)
		}
	}
	return nil
}

func (a *app) subscribe(roles []string) error {
	if err := a.store.SetAlertRoles(roles); err != nil {
		return err
	}
	prefs, err := a.store.Load()
	if err != nil {
		return err
	}
	if len(prefs.AlertRoles) == 0 {
		fmt.Fprintln(a.out, "alerts off")
		return nil
	}
	fmt.Fprintf(a.out, "alerts for: %s\n", strings.Join(prefs.AlertRoles, ", "))
	return nil
}

// alerts shows matching jobs, marks the ones posted since the last check as
// new and then resets the check time. Roles given on the command line are
// used for this run only; otherwise the subscribed roles apply.
func (a *app) alerts(ctx context.Context, roles []string) error {
	prefs, err := a.store.Load()
	if err != nil {
		return err
	}
	if len(roles) > 0 {
		prefs.AlertRoles = roles
	}
	if len(prefs.AlertRoles) == 0 {
		fmt.Fprintln(a.out, "no alert roles, run jobctl subscribe <role>")
		return nil
	}
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return err
	}

	now := a.now()
	last := prefs.LastAlertCheckTime()
	fmt.Fprintf(a.out, "%d new\n", alerts.CountNewMatches(jobs, prefs.AlertRoles, last))
	for _, j := range alerts.MatchingJobs(jobs, prefs.AlertRoles) {
		if j.CreatedAt.After(last) {
			fmt.Fprint(a.out, "* ")
		} else {
			fmt.Fprint(a.out, "  ")
		}
		a.printJob(j, now, false)
	}
	return a.store.MarkAlertsChecked(now)
}

func (a *app) find(ctx context.Context, id string) (domain.Job, error) {
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
}

func (a *app) printJob(j domain.Job, now time.Time, saved bool) {
	var tags []string
	if listing.UrgentNow(j, now) {
		tags = append(tags, "URGENT")
	}
	if saved {
		tags = append(tags, "saved")
	}
	tag := ""
	if len(tags) > 0 {
		tag = " [" + strings.Join(tags, ",") + "]"
	}
	fmt.Fprintf(a.out, "%s  %s - %s (%s)%s  %d views\n", j.ID, j.JobRole, j.City, j.CreatedAt.Local().Format("2006-01-02"), tag, j.Views)
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".jobctl"
	}
	return filepath.Join(dir, "jobctl")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
