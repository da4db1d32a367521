package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/astrathh/taskify-habitory/internal/config"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/spf13/cobra"
)

// 演示数据生成器
func newSeedCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an account with demo tasks, habits, appointments and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			backend, err := openBackend(ctx, cfg, logging.NopLogger())
			if err != nil {
				return err
			}
			defer backend.Close(context.Background())

			return seedDemoData(ctx, cmd.OutOrStdout(), backend, loc, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "demo@example.com", "account that receives the demo data")
	cmd.Flags().StringVar(&password, "password", "demo123", "password used when the account is created")
	return cmd
}

func seedDemoData(ctx context.Context, out io.Writer, backend store.Backend, loc *time.Location, email, password string) error {
	fmt.Fprintln(out, "开始生成演示数据...")

	user, created, err := service.NewUserService(backend, nil).EnsureUser(ctx, email, "Demo", password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "✅ 用户创建完成: %s (密码: %s)\n", user.Email, password)
	} else {
		fmt.Fprintf(out, "用户已存在: %s\n", user.Email)
	}

	if err := seedTasks(ctx, out, service.NewTaskService(backend), user.ID, loc); err != nil {
		return err
	}
	if err := seedHabits(ctx, out, service.NewHabitService(backend, loc), user.ID); err != nil {
		return err
	}
	if err := seedAppointments(ctx, out, service.NewAppointmentService(backend), user.ID, loc); err != nil {
		return err
	}
	if err := seedNotifications(ctx, out, service.NewNotificationService(backend), user.ID); err != nil {
		return err
	}

	fmt.Fprintln(out, "演示数据生成完成！")
	return nil
}

// 创建演示任务
func seedTasks(ctx context.Context, out io.Writer, tasks *service.TaskService, userID string, loc *time.Location) error {
	existing, err := tasks.List(ctx, userID, service.TaskFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintln(out, "任务已存在，跳过创建")
		return nil
	}

	today := time.Now().In(loc)
	due := func(days int) *time.Time {
		d := time.Date(today.Year(), today.Month(), today.Day(), 18, 0, 0, 0, loc).AddDate(0, 0, days)
		return &d
	}

	samples := []service.TaskInput{
		{Title: "Pagar conta de luz", Category: db.TaskCategoryFinance, Priority: db.TaskPriorityHigh, DueDate: due(-1)},
		{Title: "Revisar relatório trimestral", Category: db.TaskCategoryWork, Priority: db.TaskPriorityHigh, Status: db.TaskStatusInProgress, DueDate: due(0),
			Description: "Conferir **números de vendas** e enviar para a equipe."},
		{Title: "Marcar consulta no dentista", Category: db.TaskCategoryHealth, Priority: db.TaskPriorityMedium, DueDate: due(1)},
		{Title: "Organizar armário", Category: db.TaskCategoryPersonal, Priority: db.TaskPriorityLow, DueDate: due(4)},
		{Title: "Renovar seguro do carro", Category: db.TaskCategoryFinance, Priority: db.TaskPriorityMedium, Status: db.TaskStatusDone, DueDate: due(-3)},
		{Title: "Comprar presente de aniversário", Category: db.TaskCategoryOther, Priority: db.TaskPriorityLow, DueDate: due(10)},
	}
	for _, input := range samples {
		if _, err := tasks.Create(ctx, userID, input); err != nil {
			return fmt.Errorf("seed task %q: %w", input.Title, err)
		}
	}

	fmt.Fprintf(out, "✅ %d 个任务创建完成\n", len(samples))
	return nil
}

// 创建本月习惯
func seedHabits(ctx context.Context, out io.Writer, habits *service.HabitService, userID string) error {
	doc, err := habits.EnsureMonth(ctx, userID, "")
	if err != nil {
		return err
	}
	if len(doc.Habits) > 0 {
		fmt.Fprintln(out, "习惯已存在，跳过创建")
		return nil
	}

	samples := []service.HabitInput{
		{Name: "Beber água", Target: 8, Current: 5, Unit: "copos", Streak: 3},
		{Name: "Ler", Target: 20, Current: 20, Unit: "páginas", Streak: 6},
		{Name: "Exercício", Target: 12, Current: 4, Streak: 1},
		{Name: "Meditar", Target: 30, Current: 9, Unit: "minutos"},
	}
	for _, input := range samples {
		if _, _, err := habits.AddHabit(ctx, userID, input); err != nil {
			return fmt.Errorf("seed habit %q: %w", input.Name, err)
		}
	}

	fmt.Fprintf(out, "✅ %d 个习惯创建完成 (%s)\n", len(samples), doc.Month)
	return nil
}

// 创建演示约会
func seedAppointments(ctx context.Context, out io.Writer, appointments *service.AppointmentService, userID string, loc *time.Location) error {
	existing, err := appointments.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintln(out, "约会已存在，跳过创建")
		return nil
	}

	now := time.Now().In(loc)
	at := func(days, hour int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc).AddDate(0, 0, days)
	}

	samples := []service.AppointmentInput{
		{Title: "Reunião de planejamento", Location: "Sala 3", Date: at(1, 9), Reminder: true},
		{Title: "Consulta médica", Location: "Clínica Central", Date: at(3, 14), Reminder: true},
		{Title: "Jantar com amigos", Location: "Centro", Date: at(6, 20)},
	}
	for _, input := range samples {
		if _, err := appointments.Create(ctx, userID, input); err != nil {
			return fmt.Errorf("seed appointment %q: %w", input.Title, err)
		}
	}

	fmt.Fprintf(out, "✅ %d 个约会创建完成\n", len(samples))
	return nil
}

// 创建欢迎通知
func seedNotifications(ctx context.Context, out io.Writer, notifications *service.NotificationService, userID string) error {
	summary, err := notifications.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(summary.Items) > 0 {
		fmt.Fprintln(out, "通知已存在，跳过创建")
		return nil
	}

	if _, err := notifications.Add(ctx, userID, "Bem-vindo! Seus dados de demonstração estão prontos.", db.NotificationTypeSystem); err != nil {
		return fmt.Errorf("seed notification: %w", err)
	}
	fmt.Fprintln(out, "✅ 通知创建完成")
	return nil
}
