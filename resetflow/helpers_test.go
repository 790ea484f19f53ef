// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"umkm-portal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) PublishResetEvent(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []models.ResetAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ResetAction, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingCredentials struct{}

func (failingCredentials) SetPassword(context.Context, uint, string) error {
	return errors.New("credential backend unavailable")
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "reset.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, id uint, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{ID: id, Name: "User " + email, Email: email, Password: "hashed:OldPassw0rd!", Role: role}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", email, err)
	}
	return user
}

type fixture struct {
	db        *gorm.DB
	store     *Store
	users     *GormUsers
	clock     *fakeClock
	publisher *recordingPublisher
	workflow  *Workflow
	requester *models.User
	admin     *models.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	conn := openTestDB(t)
	f := &fixture{
		db:        conn,
		store:     NewStore(conn),
		users:     NewGormUsers(conn, plainHasher{}),
		clock:     newFakeClock(),
		publisher: &recordingPublisher{},
	}
	f.requester = seedUser(t, conn, 7, "owner@umkm.test", models.RoleUMKM)
	f.admin = seedUser(t, conn, 2, "admin@umkm.test", models.RoleAdmin)

	all := append([]Option{WithClock(f.clock.Now), WithPublisher(f.publisher)}, opts...)
	f.workflow = New(f.store, f.users, f.users, all...)
	return f
}

func fixedCode(code string) Option {
	return WithCodeGenerator(func() (string, error) { return code, nil })
}

func strPtr(s string) *string {
	return &s
}

// assertCodeInvariant checks that only approved requests carry a code.
func assertCodeInvariant(t *testing.T, conn *gorm.DB) {
	t.Helper()
	var requests []models.PasswordResetRequest
	if err := conn.Find(&requests).Error; err != nil {
		t.Fatalf("Failed to load requests: %v", err)
	}
	for _, r := range requests {
		hasCode := r.Code != nil
		if (r.Status == models.ResetApproved) != hasCode {
			t.Errorf("Request %d has status %s but code present=%v", r.ID, r.Status, hasCode)
		}
	}
}

func countPending(t *testing.T, conn *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.PasswordResetRequest{}).
		Where("user_id = ? AND status = ?", userID, models.ResetPending).
		Count(&n).Error; err != nil {
		t.Fatalf("Failed to count pending requests: %v", err)
	}
	return n
}
