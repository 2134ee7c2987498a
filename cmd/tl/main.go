package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tiller/internal/app"
	"tiller/internal/config"
	"tiller/internal/db"
	"tiller/internal/domain"
	"tiller/internal/engine"
	"tiller/internal/insight"
	"tiller/internal/migrate"
	"tiller/internal/repo"
	"tiller/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Tiller CLI",
	Long: `Tiller is a personal leadership journal with a prioritization engine.
Core concepts:
- Workspace: your .tiller directory holding the database; config lives in the DB and is imported explicitly.
- Entries: dated journal notes; flag one as a decision to capture rationale, confidence, stakes, and a review date.
- Commitments: things you owe people or are waiting on, triaged into a short prioritized list.
- Reflections: quick daily answers, periodic retros, or project check-ins; follow-ups become commitments.
- Dashboard: the five things worth your attention right now plus today's reflection prompt.
- Insights: decision calibration, reflection rhythm, and recurring themes over time.
- Event log: append-only diary of changes, view with 'tl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TILLER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("journal", "", "journal id (overrides the stored default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
}

func registerCommands() {
	rootCmd.AddCommand(entryCmd())
	rootCmd.AddCommand(commitmentCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(reflectCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func entryCmd() *cobra.Command {
	e := &cobra.Command{
		Use:   "entry",
		Short: "Manage journal entries",
		Long:  "Entries are dated notes. Mark one as a decision to record rationale, confidence (1-5), stakes, and a review date.",
	}
	e.AddCommand(entryNewCmd())
	e.AddCommand(entryListCmd())
	e.AddCommand(entryShowCmd())
	e.AddCommand(entryDeleteCmd())
	return e
}

func entryNewCmd() *cobra.Command {
	var title, body, projectID, occurred, rationale, assumptions, stakes, review string
	var isDecision bool
	var confidence int
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			occurredAt, err := parseDateFlag("occurred", occurred)
			if err != nil {
				return err
			}
			reviewDate, err := parseDateFlag("review", review)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entry, err := e.CreateEntry(ctx, engine.EntryCreateOptions{
					Title:       title,
					Body:        body,
					OccurredAt:  occurredAt,
					ProjectID:   projectID,
					IsDecision:  isDecision,
					Rationale:   rationale,
					Assumptions: assumptions,
					Confidence:  optionalInt(cmd, "confidence", confidence),
					Stakes:      optionalString(stakes),
					ReviewDate:  reviewDate,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(entry)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "entry title")
	cmd.Flags().StringVar(&body, "body", "", "entry body")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&occurred, "occurred", "", "occurrence date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().BoolVar(&isDecision, "decision", false, "mark entry as a decision")
	cmd.Flags().StringVar(&rationale, "rationale", "", "decision rationale")
	cmd.Flags().StringVar(&assumptions, "assumptions", "", "decision assumptions")
	cmd.Flags().IntVar(&confidence, "confidence", 0, "decision confidence 1-5")
	cmd.Flags().StringVar(&stakes, "stakes", "", "decision stakes: low, medium, high")
	cmd.Flags().StringVar(&review, "review", "", "decision review date")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func entryListCmd() *cobra.Command {
	var f repo.EntryFilters
	var since string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if since != "" {
				t, err := parseDateFlag("since", since)
				if err != nil {
					return err
				}
				f.Since = t
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.ListEntries(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Occurred", "Title", "Decision", "Outcome"})
				for _, entry := range entries {
					decision := ""
					if entry.IsDecision {
						decision = "yes"
					}
					outcome := ""
					if entry.DecisionOutcome != nil {
						outcome = *entry.DecisionOutcome
					}
					tw.AppendRow(table.Row{entry.ID, entry.OccurredAt.Format("2006-01-02"), entry.Title, decision, outcome})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&f.DecisionsOnly, "decisions", false, "decisions only")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&since, "since", "", "only entries on or after this date")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func entryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entry, err := r.GetEntry(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(entry)
			})
		},
	}
	return cmd
}

func entryDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteEntry(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func commitmentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "commitment",
		Short: "Manage commitments",
		Long:  "Commitments are promises in either direction: things you owe (i_owe) or are waiting on (waiting_for).",
	}
	c.AddCommand(commitmentNewCmd())
	c.AddCommand(commitmentListCmd())
	c.AddCommand(commitmentUpdateCmd())
	c.AddCommand(commitmentDoneCmd())
	c.AddCommand(commitmentDropCmd())
	return c
}

func commitmentNewCmd() *cobra.Command {
	var title, direction, counterparty, due, projectID, sourceEntry string
	var score int
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create commitment",
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDateFlag("due", due)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateCommitment(ctx, engine.CommitmentCreateOptions{
					Title:         title,
					Direction:     direction,
					Counterparty:  counterparty,
					DueDate:       dueDate,
					PriorityScore: score,
					ProjectID:     projectID,
					SourceEntryID: sourceEntry,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "commitment title")
	cmd.Flags().StringVar(&direction, "direction", "i_owe", "i_owe or waiting_for")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "who the commitment involves")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&score, "score", 0, "priority score 0-100")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&sourceEntry, "source-entry", "", "entry the commitment came from")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func commitmentListCmd() *cobra.Command {
	var f repo.CommitmentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List commitments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCommitments(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Direction", "Status", "Due", "Score"})
				for _, c := range items {
					due := ""
					if c.DueDate != nil {
						due = c.DueDate.Format("2006-01-02")
					}
					tw.AppendRow(table.Row{c.ID, c.Title, c.Direction, c.Status, due, c.PriorityScore})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Direction, "direction", "", "direction filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func commitmentUpdateCmd() *cobra.Command {
	var title, due string
	var clearDue bool
	var score int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a commitment's title, due date, or score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDateFlag("due", due)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateCommitment(ctx, args[0], engine.CommitmentUpdateOptions{
					Title:         optionalFlagString(cmd, "title", title),
					DueDate:       dueDate,
					ClearDue:      clearDue,
					PriorityScore: optionalInt(cmd, "score", score),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().IntVar(&score, "score", 0, "new priority score 0-100")
	return cmd
}

func commitmentDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark commitment done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CompleteCommitment(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func commitmentDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <id>",
		Short: "Drop commitment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.DropCommitment(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func decisionCmd() *cobra.Command {
	d := &cobra.Command{
		Use:   "decision",
		Short: "Review decisions",
		Long:  "Decisions are entries with rationale, confidence, and stakes. Review them when the review date arrives and record how they turned out.",
	}
	d.AddCommand(decisionReviewCmd())
	d.AddCommand(decisionPendingCmd())
	return d
}

func decisionReviewCmd() *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Record decision outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entry, err := e.ReviewDecision(ctx, args[0], outcome)
				if err != nil {
					return err
				}
				return printJSONOrTable(entry)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "validated, invalidated, mixed, or superseded")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func decisionPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List unreviewed decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.ListEntries(ctx, repo.EntryFilters{DecisionsOnly: true})
				if err != nil {
					return err
				}
				pending := entries[:0:0]
				for _, entry := range entries {
					if entry.IsDecisionEntry() && !entry.IsReviewed() {
						pending = append(pending, entry)
					}
				}
				if viper.GetBool("json") {
					return printJSON(pending)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Occurred", "Title", "Confidence", "Stakes", "Review"})
				for _, entry := range pending {
					tw.AppendRow(table.Row{
						entry.ID,
						entry.OccurredAt.Format("2006-01-02"),
						entry.Title,
						intOrDash(entry.DecisionConfidence),
						strOrDash(entry.DecisionStakes),
						dateOrDash(entry.DecisionReviewDate),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reflectCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "reflect",
		Short: "Record reflections",
		Long:  "Reflections are quick daily answers, periodic retros (weekly/monthly/quarterly), or project check-ins. Follow-ups become commitments.",
	}
	r.AddCommand(reflectNewCmd())
	r.AddCommand(reflectListCmd())
	r.AddCommand(reflectQuestionsCmd())
	return r
}

func reflectNewCmd() *cobra.Command {
	var reflectionType, period, mood, projectID string
	var tags, answers, followUps []string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Record a reflection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				questions := questionsFor(e.Config, reflectionType, period)
				qa := make([]domain.QuestionAnswer, 0, len(answers))
				for i, answer := range answers {
					question := ""
					if i < len(questions) {
						question = questions[i]
					}
					qa = append(qa, domain.QuestionAnswer{Question: question, Answer: answer})
				}
				var follow []engine.CommitmentCreateOptions
				for _, title := range followUps {
					follow = append(follow, engine.CommitmentCreateOptions{Title: title})
				}
				ref, err := e.CreateReflection(ctx, engine.ReflectionCreateOptions{
					ReflectionType: reflectionType,
					PeriodType:     period,
					Mood:           mood,
					Tags:           tags,
					Answers:        qa,
					ProjectID:      projectID,
					FollowUps:      follow,
				})
				if err != nil {
					return err
				}
				if len(ref.Tags) == 0 {
					if suggested := e.SuggestThemes(ref.QuestionsAnswers, nil); len(suggested) > 0 && !viper.GetBool("json") {
						fmt.Println("suggested themes:", strings.Join(suggested, ", "))
					}
				}
				return printJSONOrTable(ref)
			})
		},
	}
	cmd.Flags().StringVar(&reflectionType, "type", domain.ReflectionQuick, "quick, periodic, project, or relationship")
	cmd.Flags().StringVar(&period, "period", "", "weekly, monthly, or quarterly (periodic only)")
	cmd.Flags().StringVar(&mood, "mood", "", "drained, uncertain, neutral, confident, or energized")
	cmd.Flags().StringVar(&projectID, "project", "", "project id (project reflections)")
	cmd.Flags().StringArrayVar(&tags, "tag", []string{}, "theme tags")
	cmd.Flags().StringArrayVar(&answers, "answer", []string{}, "answers, paired with the configured questions in order")
	cmd.Flags().StringArrayVar(&followUps, "follow-up", []string{}, "follow-up commitment titles")
	return cmd
}

func reflectListCmd() *cobra.Command {
	var f repo.ReflectionFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reflections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListReflections(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Created", "Type", "Mood", "Tags"})
				for _, ref := range items {
					tw.AppendRow(table.Row{
						ref.ID,
						ref.CreatedAt.Format("2006-01-02"),
						ref.ReflectionType,
						strOrDash(ref.Mood),
						strings.Join(ref.Tags, ","),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ReflectionType, "type", "", "type filter")
	cmd.Flags().StringVar(&f.PeriodType, "period", "", "period filter")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func reflectQuestionsCmd() *cobra.Command {
	var reflectionType, period string
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Show the configured questions for a reflection type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				questions := questionsFor(e.Config, reflectionType, period)
				if viper.GetBool("json") {
					return printJSON(questions)
				}
				for i, q := range questions {
					fmt.Printf("%d. %s\n", i+1, q)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reflectionType, "type", domain.ReflectionQuick, "reflection type")
	cmd.Flags().StringVar(&period, "period", "", "period (periodic only)")
	return cmd
}

func projectCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	p.AddCommand(projectNewCmd())
	p.AddCommand(projectListCmd())
	p.AddCommand(projectUpdateCmd())
	return p
}

func projectNewCmd() *cobra.Command {
	var name string
	var priority int
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, "", name, priority)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().IntVar(&priority, "priority", 0, "priority 1-5 (default 3)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Priority", "Last Active"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Status, p.Priority, dateOrDash(p.LastActiveAt)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var status string
	var priority int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project status or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProject(ctx, args[0], optionalString(status), optionalInt(cmd, "priority", priority))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "active, on_hold, completed, or archived")
	cmd.Flags().IntVar(&priority, "priority", 0, "priority 1-5")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the attention dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				dash, err := e.Dashboard(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(dash)
				}
				printPrompt(dash.Prompt)
				printRhythm(dash.Rhythm)
				if dash.Commitments.HasCommitments {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Urgency", "ID", "Title", "Due", "Score"})
					for _, rc := range dash.Commitments.Prioritized {
						tw.AppendRow(table.Row{
							rc.Urgency,
							rc.Commitment.ID,
							rc.Commitment.Title,
							dateOrDash(rc.Commitment.DueDate),
							rc.Commitment.PriorityScore,
						})
					}
					tw.Render()
				}
				if len(dash.Commitments.StaleWaitingFor) > 0 {
					fmt.Println("stale waiting-for:")
					for _, c := range dash.Commitments.StaleWaitingFor {
						fmt.Printf("  %s  %s (%s)\n", c.ID, c.Title, c.Counterparty)
					}
				}
				if dash.Reviews.HasReviews {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Review", "ID", "Title"})
					for _, rr := range dash.Reviews.Prioritized {
						tw.AppendRow(table.Row{rr.Label, rr.Entry.ID, rr.Entry.Title})
					}
					tw.Render()
				}
				return nil
			})
		},
	}
	return cmd
}

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show longitudinal insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ins, err := e.Insights(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(ins)
				}
				cal := ins.Calibration
				fmt.Printf("decisions reviewed: %d (validation rate %d%%, %d this quarter)\n",
					cal.ReviewedCount, cal.ValidationRate, cal.DecisionsThisQuarter)
				if cal.Insight != "" {
					fmt.Println("calibration:", cal.Insight)
				}
				if len(cal.ConfidenceCalibration) > 0 {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Confidence", "Validated %"})
					for level := 1; level <= 5; level++ {
						if rate, ok := cal.ConfidenceCalibration[level]; ok {
							tw.AppendRow(table.Row{level, rate})
						}
					}
					tw.Render()
				}
				printRhythm(ins.Rhythm)
				if len(ins.TopThemes) > 0 {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Theme", "Count"})
					for _, tc := range ins.TopThemes {
						tw.AppendRow(table.Row{tc.Tag, tc.Count})
					}
					tw.Render()
				}
				if len(ins.Pending) > 0 {
					fmt.Printf("%d decisions awaiting review\n", len(ins.Pending))
				}
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect journal config",
		Long:  "Config is the journal rulebook (stored in DB): identity, theme catalog, and reflection question sets. Import from tiller.yml explicitly.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configImportCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import config from a YAML file into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if file == "" {
				cfg, err = config.Load(viper.GetString("workspace"))
			} else {
				cfg, err = config.FromFile(file)
			}
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpsertJournalConfig(ctx, cfg.Journal.ID, cfg); err != nil {
					return err
				}
				fmt.Println("imported config for journal", cfg.Journal.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "config file path (default <workspace>/tiller.yml)")
	return cmd
}

func configInitCmd() *cobra.Command {
	var journalID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default tiller.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(journalID)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&journalID, "journal-id", "journal", "journal id for the generated config")
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "log",
		Short: "Inspect the event log",
	}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.ListEvents(ctx, repo.EventFilters{
					Type:       evtType,
					EntityKind: entityKind,
					EntityID:   entityID,
					Limit:      n,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveJournalConfig(cmd.Context(), workspace, viper.GetString("journal"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("TILLER_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				fmt.Println("WARNING: TILLER_JWT_SECRET not set; serving without authentication")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Tiller API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveJournalConfig(ctx, workspace, viper.GetString("journal"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPrompt(p insight.Prompt) {
	switch p.Kind {
	case insight.PromptRecap:
		if p.Recap != nil {
			fmt.Printf("prompt: recap your %s reflection from %s\n", p.Recap.ReflectionType, p.Recap.CreatedAt.Format("2006-01-02"))
		} else {
			fmt.Println("prompt: recap recent reflections")
		}
	case insight.PromptWeekly:
		fmt.Println("prompt: time for a weekly reflection")
	case insight.PromptProjectCheckIn:
		if p.Project != nil {
			fmt.Printf("prompt: check in on project %q\n", p.Project.Name)
		}
	case insight.PromptBusyWeek:
		fmt.Printf("prompt: busy week (%d entries); capture a quick reflection\n", p.EntriesThisWeek)
	default:
		fmt.Println("prompt: write your first reflection")
	}
}

func printRhythm(r insight.Rhythm) {
	fmt.Printf("rhythm: %s (streak %d, mood %s, frequency %s)\n",
		r.Status.Kind, r.WeeklyStreak, r.MoodTrend, r.FrequencyTrend)
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: expected YYYY-MM-DD or RFC3339", name)
	}
	return &t, nil
}

func questionsFor(cfg *config.Config, reflectionType, period string) []string {
	switch reflectionType {
	case domain.ReflectionQuick:
		return cfg.Questions.Quick
	case domain.ReflectionProject:
		return cfg.Questions.Project
	case domain.ReflectionPeriodic:
		return cfg.QuestionsFor(period)
	default:
		return cfg.Questions.Quick
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalFlagString(cmd *cobra.Command, flag, v string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func optionalInt(cmd *cobra.Command, flag string, v int) *int {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
