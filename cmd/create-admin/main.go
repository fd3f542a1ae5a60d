package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"formreply/backend/internal/auth"
	"formreply/backend/internal/config"
	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
	sqlstore "formreply/backend/internal/storage/sql"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: create-admin <username> <email> <password> [permissions]")
		fmt.Println("  permissions: 逗号分隔的权限列表，默认 reply_all")
		os.Exit(1)
	}

	username := os.Args[1]
	email := os.Args[2]
	password := os.Args[3]
	permissions := string(domain.PermReplyAll)
	if len(os.Args) >= 5 {
		permissions = os.Args[4]
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.Type == "" || cfg.Database.DSN == "" {
		fmt.Println("错误: 未配置数据库，请设置 FORMREPLY_DATABASE_TYPE 和 FORMREPLY_DATABASE_DSN")
		os.Exit(1)
	}

	// 连接数据库
	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		fmt.Printf("Failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// 验证邮箱
	if !domain.NewEmailValidator().IsValid(email) {
		fmt.Println("Invalid email format")
		os.Exit(1)
	}

	if len(password) < 8 {
		fmt.Println("Password must be at least 8 characters")
		os.Exit(1)
	}

	// 哈希密码
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Permissions:  permissions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateAccount(account); err != nil {
		if err == storage.ErrAccountExists {
			fmt.Printf("Account %q already exists\n", username)
		} else {
			fmt.Printf("Failed to create account: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("✓ Admin account created successfully!")
	fmt.Printf("  ID:          %s\n", account.ID)
	fmt.Printf("  Username:    %s\n", account.Username)
	fmt.Printf("  Email:       %s\n", account.Email)
	fmt.Printf("  Permissions: %s\n", account.Permissions)
}
