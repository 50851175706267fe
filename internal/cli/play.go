package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/client"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/quiz"
)

type playOptions struct {
	server     string
	name       string
	email      string
	password   string
	register   bool
	amount     int
	category   string
	difficulty string
	timeLimit  int
}

// NewPlayCmd plays one quiz against a running server from the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyPlayDefaults(&opts, *configPath)
			return runPlay(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "", "API base URL (default http://localhost:<server.port>)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name, used with --register")
	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.password, "password", os.Getenv("QUIZ_PASSWORD"), "account password")
	cmd.Flags().BoolVar(&opts.register, "register", false, "create the account first")
	cmd.Flags().IntVar(&opts.amount, "amount", 0, "number of questions")
	cmd.Flags().StringVar(&opts.category, "category", "", "OpenTDB category id")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().IntVar(&opts.timeLimit, "time-limit", 0, "time budget in seconds")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// applyPlayDefaults fills unset flags from the config file when it loads.
func applyPlayDefaults(opts *playOptions, configPath string) {
	port := "5000"
	amount, limit := domain.DefaultQuestionCount, domain.DefaultTimeLimit
	if cfg, err := config.Load(configPath); err == nil {
		if cfg.Server.Port != "" {
			port = cfg.Server.Port
		}
		amount, limit = cfg.Quiz.QuestionCount, cfg.Quiz.TimeLimit
	}
	if opts.server == "" {
		opts.server = "http://localhost:" + port
	}
	if opts.amount == 0 {
		opts.amount = amount
	}
	if opts.timeLimit == 0 {
		opts.timeLimit = limit
	}
}

func runPlay(ctx context.Context, opts playOptions, in io.Reader, out io.Writer) error {
	player := client.NewApp(client.NewAPI(opts.server, 10*time.Second), setupLogger(config.EnvProduction, "error"),
		client.WithTimeLimit(opts.timeLimit))

	var err error
	if opts.register {
		err = player.Register(ctx, opts.name, opts.email, opts.password)
	} else {
		err = player.Login(ctx, opts.email, opts.password)
	}
	if err != nil {
		return err
	}
	user, _ := player.User()
	fmt.Fprintf(out, "Welcome, %s!\n", user.Name)

	if err := player.StartQuiz(ctx, domain.QuestionRequest{
		Amount:     opts.amount,
		Category:   opts.category,
		Difficulty: opts.difficulty,
	}); err != nil {
		return err
	}
	session := player.Session()
	if session.UsedFallback() {
		fmt.Fprintln(out, "The trivia service is unreachable, playing the built-in questions.")
	}
	fmt.Fprintln(out, "Commands: 1-4 answer, n next, p previous, g <n> go to question, s submit")

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for session.Phase() == quiz.PhaseActive {
		printQuestion(out, session)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-session.Done():
			fmt.Fprintln(out, "\nTime is up!")
		case line, ok := <-lines:
			if !ok {
				_ = session.Submit()
				break
			}
			if err := handleInput(session, strings.TrimSpace(line)); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
		}
	}

	report, err := player.Submit(ctx)
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

func handleInput(s *quiz.Session, line string) error {
	current := s.Current()
	switch {
	case line == "n":
		return s.Navigate(current + 1)
	case line == "p":
		return s.Navigate(current - 1)
	case line == "s":
		return s.Submit()
	case strings.HasPrefix(line, "g "):
		n, err := strconv.Atoi(strings.TrimSpace(line[2:]))
		if err != nil {
			return fmt.Errorf("not a question number: %q", line[2:])
		}
		return s.Navigate(n - 1)
	}
	choice, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("unknown command %q", line)
	}
	options := s.Questions()[current].Options
	if choice < 1 || choice > len(options) {
		return fmt.Errorf("pick an option between 1 and %d", len(options))
	}
	return s.SelectAnswer(current, options[choice-1])
}

func printQuestion(out io.Writer, s *quiz.Session) {
	current := s.Current()
	q := s.Questions()[current]
	answer, _ := s.Answer(current)

	fmt.Fprintf(out, "\n[%s] Question %d/%d  answered %d  not visited %d\n",
		quiz.FormatClock(s.Remaining()), current+1, s.TotalQuestions(), s.AnsweredCount(), s.NotVisitedCount())
	fmt.Fprintf(out, "%s (%s, %s)\n", q.Text, q.Category, q.Difficulty)
	for i, opt := range q.Options {
		marker := " "
		if opt == answer {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", marker, i+1, opt)
	}
	var badges strings.Builder
	for i := 0; i < s.TotalQuestions(); i++ {
		switch s.Status(i) {
		case quiz.StatusCurrent:
			badges.WriteString("@")
		case quiz.StatusAttempted:
			badges.WriteString("#")
		case quiz.StatusVisited:
			badges.WriteString("o")
		default:
			badges.WriteString(".")
		}
	}
	fmt.Fprintf(out, "Overview: %s\n> ", badges.String())
}

func printReport(out io.Writer, r client.Report) {
	fmt.Fprintf(out, "\nScore: %d%%  (%d/%d correct, %s used)\n",
		r.Score, r.CorrectAnswers, r.TotalQuestions, quiz.FormatClock(r.TimeUsed))
	for i, q := range r.Questions {
		mark := "x"
		if q.IsCorrect {
			mark = "v"
		}
		given := "-"
		if q.UserAnswer != nil {
			given = *q.UserAnswer
		}
		fmt.Fprintf(out, "%s %2d. %s\n      yours: %s  correct: %s\n", mark, i+1, q.Question, given, q.CorrectAnswer)
	}
	switch {
	case r.Saved != nil:
		fmt.Fprintf(out, "Result saved (%s).\n", r.Saved.ID)
	case r.SaveError != nil:
		fmt.Fprintf(out, "Result could not be saved: %v\n", r.SaveError)
	}
}
