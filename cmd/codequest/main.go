package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/codequest/internal/catalog"
	"github.com/pavelanni/codequest/internal/handler"
	appI18n "github.com/pavelanni/codequest/internal/i18n"
	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/profiles"
	"github.com/pavelanni/codequest/internal/progress"
	"github.com/pavelanni/codequest/internal/store"
	"github.com/pavelanni/codequest/internal/store/mongostore"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "codequest",
		Short:        "Progress engine for gamified coding lessons",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, rolloverCmd(), profileCmd(), catalogCmd(), exportCmd(), tokenCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `codequest --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the progress API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("catalog", "c", []string{"problems/core.yaml"}, "Problem catalog files, JSON or YAML (repeatable)")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.String("admin-password", "", "Initial admin password (or set CODEQUEST_ADMIN_PASSWORD)")
	f.Bool("enforce-hearts", false, "Reject attempts while the learner has no hearts left")
	f.Int("practice-hearts", 1, "Hearts restored by one practice round")
	addIdentityFlags(f)
	addStoreFlags(f)
	addEngineFlags(f)
	addLogFlags(f)
	return cmd
}

func addStoreFlags(f *pflag.FlagSet) {
	f.String("db", "codequest.db", "SQLite database path")
	f.String("store", "sqlite", "Profile store backend (sqlite, mongo)")
	f.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI for --store mongo")
	f.String("mongo-db", "codequest", "MongoDB database name for --store mongo")
	f.Uint("max-retries", profiles.DefaultRetryPolicy.MaxRetries, "Retries for a profile write that lost a race")
	f.Duration("retry-delay", profiles.DefaultRetryPolicy.Delay, "Base backoff between profile write retries")
}

func addEngineFlags(f *pflag.FlagSet) {
	d := progress.DefaultConfig()
	f.Int("max-hearts", d.MaxHearts, "Heart cap per learner")
	f.Int("base-xp", d.BaseXP, "XP for a correct answer")
	f.Int("bonus-xp", d.BonusXP, "XP for a correct answer on an in-session streak")
	f.Int("bonus-streak", d.BonusStreak, "In-session streak length that earns bonus XP")
	f.Int("promotion-zone", d.PromotionZone, "Learners promoted per league cohort at rollover")
	f.Int("demotion-zone", d.DemotionZone, "Learners demoted per league cohort at rollover")
}

func addIdentityFlags(f *pflag.FlagSet) {
	f.String("jwt-secret", "", "HS256 key shared with the identity provider (or set CODEQUEST_JWT_SECRET)")
	f.String("jwt-issuer", "", "Required token issuer (empty accepts any)")
	f.String("jwt-audience", "", "Required token audience (empty accepts any)")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CODEQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("codequest")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/codequest")
	v.AddConfigPath("/etc/codequest")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// engineFromConfig builds the progress engine from the bound engine flags.
func engineFromConfig(v *viper.Viper) (*progress.Engine, error) {
	cfg := progress.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return progress.New(cfg, nil), nil
}

// openProfiles returns the profile store selected by --store. The SQLite
// database is always used for operators, the catalog and metadata.
func openProfiles(ctx context.Context, v *viper.Viper, db *store.Store) (profiles.Store, func(), error) {
	switch backend := strings.ToLower(v.GetString("store")); backend {
	case "", "sqlite":
		return db, func() {}, nil
	case "mongo", "mongodb":
		ms, err := mongostore.New(ctx, v.GetString("mongo-uri"), v.GetString("mongo-db"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		slog.Info("using mongo profile store", "database", v.GetString("mongo-db"))
		return ms, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Close(closeCtx); err != nil {
				slog.Warn("close mongo", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// openService opens the SQLite database and the selected profile store and
// wires them to a profile service. The returned cleanup closes both.
func openService(ctx context.Context, v *viper.Viper) (*profiles.Service, *store.Store, func(), error) {
	engine, err := engineFromConfig(v)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	ps, closeProfiles, err := openProfiles(ctx, v, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	policy := profiles.RetryPolicy{
		MaxRetries: v.GetUint("max-retries"),
		Delay:      v.GetDuration("retry-delay"),
	}
	cleanup := func() {
		closeProfiles()
		db.Close()
	}
	return profiles.New(ps, engine, policy), db, cleanup, nil
}

func identityFromConfig(v *viper.Viper) (*handler.Identity, error) {
	secret := v.GetString("jwt-secret")
	if secret == "" {
		return nil, fmt.Errorf("token secret is required: set --jwt-secret flag or CODEQUEST_JWT_SECRET env var")
	}
	return handler.NewIdentity([]byte(secret), v.GetString("jwt-issuer"), v.GetString("jwt-audience"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	identity, err := identityFromConfig(v)
	if err != nil {
		return err
	}

	svc, db, cleanup, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	problems, err := catalog.Sync(db, v.GetStringSlice("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(problems) == 0 {
		slog.Warn("problem catalog is empty")
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	hcfg := handler.Config{
		EnforceHearts:  v.GetBool("enforce-hearts"),
		PracticeHearts: v.GetInt("practice-hearts"),
	}
	h, err := handler.New(svc, db, identity, problems, hcfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	ecfg := svc.Engine().Config()
	slog.Info("starting server",
		"addr", addr,
		"store", v.GetString("store"),
		"lang", lang,
		"problems", len(problems),
		"enforce_hearts", hcfg.EnforceHearts,
		"max_hearts", ecfg.MaxHearts,
		"base_xp", ecfg.BaseXP,
		"bonus_xp", ecfg.BonusXP,
		"bonus_streak", ecfg.BonusStreak,
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or CODEQUEST_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
