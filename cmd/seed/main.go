package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/config"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/repository"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/seed"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// app 在子命令执行前由 root 的 PersistentPreRunE 填充
type app struct {
	cfg    *config.Config
	dbpool *sql.DB
	repo   *repository.Repository
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "向数据库写入测试数据或导入题库",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.dbpool != nil {
				a.dbpool.Close()
			}
		},
	}

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newUsersCmd(a))
	cmd.AddCommand(newVehiclesCmd(a))
	cmd.AddCommand(newQuestionsCmd(a))
	cmd.AddCommand(newRulesCmd(a))
	return cmd
}

func (a *app) open(ctx context.Context) error {
	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(pingCtx); err != nil {
		dbpool.Close()
		return fmt.Errorf("无法连接到数据库: %w", err)
	}

	a.cfg = cfg
	a.dbpool = dbpool
	a.repo = repository.NewRepository(cfg, dbpool)
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repository.RunMigrations(a.dbpool, a.logger)
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "插入随机操作员",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("请输入合法的用户数量")
			}

			cnt := 0
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(a.cfg.Seed.User.Password, a.cfg.Email.UserDomain)
				if err != nil {
					a.logger.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := a.repo.CreateUser(cmd.Context(), user); err != nil {
					a.logger.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt++
			}

			a.logger.Info("插入用户成功", slog.Int("count", cnt))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 5, "要插入的用户数量")
	return cmd
}

func newVehiclesCmd(a *app) *cobra.Command {
	var n int
	var withRules bool

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "插入随机车辆，并为每辆车生成题库",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("请输入合法的车辆数量")
			}

			ctx := cmd.Context()
			cnt := 0
			for i := 0; i < n; i++ {
				v := utils.GenerateRandomVehicle()
				if err := a.repo.CreateVehicle(ctx, v); err != nil {
					a.logger.Error("无法插入车辆", slog.String("error", err.Error()))
					continue
				}

				bank := utils.GenerateRandomQuestionBank(v.ID)
				if err := a.repo.ReplaceQuestionBank(ctx, v.ID, bank); err != nil {
					a.logger.Error("无法插入题库", slog.Int64("vehicleID", v.ID), slog.String("error", err.Error()))
					continue
				}

				if withRules {
					if err := a.repo.SaveRotationRules(ctx, utils.GenerateRandomRotationRules(v.ID)); err != nil {
						a.logger.Error("无法插入轮换规则", slog.Int64("vehicleID", v.ID), slog.String("error", err.Error()))
						continue
					}
				}

				cnt++
			}

			a.logger.Info("插入车辆成功", slog.Int("count", cnt))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 3, "要插入的车辆数量")
	cmd.Flags().BoolVar(&withRules, "with-rules", true, "是否同时生成轮换规则")
	return cmd
}

func newQuestionsCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "从 yaml 文件导入车辆题库",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("无法打开题库文件: %w", err)
			}
			defer file.Close()

			f, err := seed.Parse(file)
			if err != nil {
				return err
			}

			summary, err := seed.Apply(cmd.Context(), a.repo, f, a.logger)
			if err != nil {
				return err
			}

			a.logger.Info("导入题库成功",
				slog.Int("vehiclesCreated", summary.VehiclesCreated),
				slog.Int("questions", summary.Questions),
				slog.Int("rulesSaved", summary.RulesSaved),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "internal/seed/data/question_bank.yaml", "题库文件路径")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	var vehicleID int64

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "为指定车辆生成随机轮换规则",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vehicleID <= 0 {
				return errors.New("请输入合法的车辆 ID")
			}

			ctx := cmd.Context()
			if _, err := a.repo.GetVehicleByID(ctx, vehicleID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("车辆 %d 不存在", vehicleID)
				}
				return err
			}

			rules := utils.GenerateRandomRotationRules(vehicleID)
			if err := utils.ValidateRotationRules(rules); err != nil {
				a.logger.Warn("生成的轮换规则不合理，仍然写入", slog.String("error", err.Error()))
			}
			if err := a.repo.SaveRotationRules(ctx, rules); err != nil {
				return fmt.Errorf("无法写入轮换规则: %w", err)
			}

			a.logger.Info("写入轮换规则成功", slog.Int64("vehicleID", vehicleID))
			return nil
		},
	}

	cmd.Flags().Int64Var(&vehicleID, "vehicle-id", 0, "车辆 ID")
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("执行失败", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
