package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pavelanni/codequest/internal/catalog"
	"github.com/pavelanni/codequest/internal/league"
	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func rolloverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Close the league period: promote, demote and reset period XP",
		Args:  cobra.NoArgs,
		RunE:  runRollover,
	}
	f := cmd.Flags()
	f.Bool("quiet", false, "Print only the totals")
	f.Bool("force", false, "Roll over even if a rollover already ran today")
	addStoreFlags(f)
	addEngineFlags(f)
	addLogFlags(f)
	return cmd
}

func runRollover(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	svc, db, cleanup, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	report, rollErr := league.RolloverOnce(ctx, svc, db, v.GetBool("force"))
	if errors.Is(rollErr, league.ErrAlreadyRolledOver) {
		return fmt.Errorf("%w; pass --force to run it again", rollErr)
	}
	out := cmd.OutOrStdout()

	if !v.GetBool("quiet") {
		ids := make([]string, 0, len(report.Outcomes))
		for id := range report.Outcomes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			switch report.Outcomes[id] {
			case progress.Promote:
				color.New(color.FgGreen).Fprintf(out, "  ▲ %s\n", id)
			case progress.Demote:
				color.New(color.FgRed).Fprintf(out, "  ▼ %s\n", id)
			default:
				fmt.Fprintf(out, "  = %s\n", id)
			}
		}
	}
	color.New(color.Bold).Fprintf(out, "promoted %d, demoted %d, stayed %d\n",
		report.Promoted, report.Demoted, report.Stayed)

	if rollErr != nil {
		return fmt.Errorf("league rollover: %w", rollErr)
	}
	return nil
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect learner profiles",
	}
	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a learner's progress",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileShow,
	}
	f := show.Flags()
	addStoreFlags(f)
	addEngineFlags(f)
	addLogFlags(f)

	move := &cobra.Command{
		Use:   "league <user-id> <promote|demote|stay>",
		Short: "Move one learner a tier outside the weekly rollover",
		Args:  cobra.ExactArgs(2),
		RunE:  runProfileLeague,
	}
	f = move.Flags()
	addStoreFlags(f)
	addEngineFlags(f)
	addLogFlags(f)

	cmd.AddCommand(show, move)
	return cmd
}

func runProfileLeague(cmd *cobra.Command, args []string) error {
	outcome, err := progress.ParseLeagueOutcome(args[1])
	if err != nil {
		return err
	}
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	svc, _, cleanup, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := svc.Mutate(ctx, args[0], func(p model.LearnerProfile) (model.LearnerProfile, error) {
		if p.Version == 0 {
			return p, fmt.Errorf("learner %q: %w", args[0], progress.ErrProfileNotFound)
		}
		return svc.Engine().ApplyLeagueOutcome(p, outcome), nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", p.UserID, p.League, outcome)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	svc, db, cleanup, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if p.Version == 0 {
		return fmt.Errorf("learner %q has no stored profile", args[0])
	}
	problems, err := db.ListProblems()
	if err != nil {
		return fmt.Errorf("list problems: %w", err)
	}

	printProfile(cmd.OutOrStdout(), p, svc.Engine().Config().MaxHearts, progress.DeriveUnits(problems, p.Attempts))
	return nil
}

func printProfile(w io.Writer, p model.LearnerProfile, maxHearts int, units []model.Unit) {
	bold := color.New(color.Bold)
	label := color.New(color.FgCyan)
	row := func(name, format string, a ...any) {
		label.Fprintf(w, "%-16s", name)
		fmt.Fprintf(w, format+"\n", a...)
	}

	bold.Fprintf(w, "%s\n", p.UserID)
	hearts := color.New(color.FgRed)
	if p.Hearts == 0 {
		hearts = color.New(color.FgHiBlack)
	}
	label.Fprintf(w, "%-16s", "hearts")
	hearts.Fprintf(w, "%d/%d\n", p.Hearts, maxHearts)
	row("xp", "%d", p.XP)
	tiers := model.AllLeagues()
	row("league", "%s, tier %d of %d (%d XP this period)", p.League, p.League.Rank()+1, len(tiers), p.LeagueXP)
	last := "never"
	if !p.LastActivityDate.IsZero() {
		last = p.LastActivityDate.String()
	}
	row("streak", "%d days, last active %s", p.StreakCount, last)
	row("freezes", "%d", p.StreakFreezes)
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	row("timezone", "%s", tz)
	row("attempts", "%d", len(p.Attempts))

	if len(units) == 0 {
		return
	}
	bold.Fprintln(w, "units")
	for _, u := range units {
		c := color.New(color.Reset)
		if u.Completed == len(u.Nodes) {
			c = color.New(color.FgGreen)
		}
		c.Fprintf(w, "  %-20s %d/%d\n", u.Category, u.Completed, len(u.Nodes))
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with problem catalog files",
	}
	check := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate catalog files without importing them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCatalogCheck,
	}
	addLogFlags(check.Flags())
	cmd.AddCommand(check)
	return cmd
}

func runCatalogCheck(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	problems, err := catalog.Load(args...)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, p := range problems {
		counts[p.Category]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := cmd.OutOrStdout()
	for _, c := range categories {
		fmt.Fprintf(out, "  %-20s %d\n", c, counts[c])
	}
	color.New(color.FgGreen).Fprintf(out, "ok: %d problems in %d categories\n", len(problems), len(categories))
	return nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export learner profiles as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(f)
	addEngineFlags(f)
	addLogFlags(f)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	svc, _, cleanup, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	export, err := svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("export profiles: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a learner token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
	f := cmd.Flags()
	f.Duration("ttl", 24*time.Hour, "Token lifetime")
	addIdentityFlags(f)
	addLogFlags(f)
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	identity, err := identityFromConfig(v)
	if err != nil {
		return err
	}
	tok, err := identity.Issue(args[0], v.GetDuration("ttl"), time.Now())
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
