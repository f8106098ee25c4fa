package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autorl-dev/autorl/internal/config"
	"github.com/autorl-dev/autorl/internal/demo"
	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/episodes"
	"github.com/autorl-dev/autorl/internal/feed"
	"github.com/autorl-dev/autorl/internal/fleet"
	"github.com/autorl-dev/autorl/internal/notify"
	"github.com/autorl-dev/autorl/internal/sim"
	"github.com/autorl-dev/autorl/tui"
	"github.com/autorl-dev/autorl/web/api"
)

var (
	runTask       string
	runDevice     string
	runNoLearning bool
	servePort     int
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard backend",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one simulated run and print its events",
		RunE:  runOnce,
	}
	runCmd.Flags().StringVar(&runTask, "task", "", "task description")
	runCmd.Flags().StringVar(&runDevice, "device", "", "device id")
	runCmd.Flags().BoolVar(&runNoLearning, "no-learning", false, "skip episode recording")
	rootCmd.AddCommand(runCmd)

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List registered devices",
		RunE:  runDevices,
	}
	rootCmd.AddCommand(devicesCmd)

	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Show episodic memory of a running server",
		RunE:  runMemory,
	}
	memoryResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the episodic memory of a running server",
		RunE:  runMemoryReset,
	}
	memoryCmd.AddCommand(memoryResetCmd)
	rootCmd.AddCommand(memoryCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the TUI dashboard",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	store, err := fleet.New(cfg.General.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening fleet store: %w", err)
	}
	defer store.Close()
	if err := store.Seed(); err != nil {
		return fmt.Errorf("seeding fleet store: %w", err)
	}

	epLog := episodes.NewLog()
	engine := sim.New(epLog, sim.WithConfig(cfg.SimConfig()))
	hub := feed.NewHub(time.Duration(cfg.Server.HeartbeatSecs) * time.Second)
	server := api.NewServer(store, engine, epLog, hub, cfg.Server.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("listening on http://%s", cfg.Server.Addr())
		if err := server.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	// Live reload of simulation tunables
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	watcher, err := config.NewWatcher(cfgPath, func(cfg *config.Config) {
		log.Printf("config reloaded, applying simulation settings")
		engine.SetConfig(cfg.SimConfig())
	})
	if err == nil {
		defer watcher.Close()
		g.Go(func() error {
			watcher.Start(ctx)
			return nil
		})
	}

	if cfg.Demo.Enabled {
		scenarios, err := demo.LoadScenarios(cfg.Demo.ScenariosPath)
		if err != nil {
			return fmt.Errorf("loading demo scenarios: %w", err)
		}
		loop, err := demo.NewLoop(engine, scenarios, cfg.Demo.Cron, func(ev domain.LifecycleEvent) {
			server.Broadcast(api.SSEEvent{Type: "task_update", Data: ev})
			hub.BroadcastEvent(ev)
		}, buildNotifier(cfg))
		if err != nil {
			return fmt.Errorf("starting demo loop: %w", err)
		}
		g.Go(func() error {
			loop.Start(ctx)
			return nil
		})
		log.Printf("demo loop enabled, next run %s", loop.NextRun().Format(time.RFC3339))
	}

	return g.Wait()
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return notify.NoopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	epLog := episodes.NewLog()
	engine := sim.New(epLog, sim.WithConfig(cfg.SimConfig()))

	learning := !runNoLearning
	req := domain.TaskRequest{
		TaskDescription: runTask,
		DeviceID:        runDevice,
		Learning:        &learning,
	}

	done := make(chan struct{})
	final := domain.KindCompleted
	if learning {
		final = domain.KindMemorySaved
	}

	handle := engine.StartRun(req, func(ev domain.LifecycleEvent) {
		fmt.Printf("%s  %-16s %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Kind, ev.Text)
		if ev.Kind == final {
			close(done)
		}
	})
	fmt.Printf("run %d started\n", handle.RunID)

	<-done
	if learning {
		fmt.Printf("episodes recorded: %d\n", epLog.Len())
	}
	return nil
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := fleet.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Seed(); err != nil {
		return err
	}

	devices, err := store.ListDevices()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLATFORM\tSTATUS\tBATTERY\tLAST SEEN")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n",
			d.ID, d.Platform, d.Status, d.Battery, d.LastSeen.Format(time.RFC3339))
	}
	return w.Flush()
}

func runMemory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/memory", cfg.Server.Addr()))
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	var mem api.MemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&mem); err != nil {
		return err
	}

	if mem.Count == 0 {
		fmt.Println("no episodes recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTASK\tDEVICE\tTIMESTAMP")
	for _, ep := range mem.Episodes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			ep.RunID, ep.TaskDescription, ep.DeviceID, ep.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func runMemoryReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("http://%s/api/memory/reset", cfg.Server.Addr()), "application/json", nil)
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset failed with status %d", resp.StatusCode)
	}
	fmt.Println("memory cleared")
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	epLog := episodes.NewLog()
	engine := sim.New(epLog, sim.WithConfig(cfg.SimConfig()))

	model := tui.NewModel(engine, epLog)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()
	return err
}
