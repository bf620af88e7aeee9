package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var memberRowColumns = []string{
	"user_id", "guild_id", "username", "xp", "level", "total_xp", "monthly_xp",
	"frozen", "frozen_until", "frozen_by", "last_message", "last_reset", "created_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func expectationsWereMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestReadRepository_GetMember(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr bool
		check   func(t *testing.T, m *xp.Member)
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(memberRowColumns).
					AddRow("u1", "g1", "alice", int64(450), 2, int64(900), int64(120), true, &until, "mod", &now, nil, now)
				mock.ExpectQuery(`SELECT (.+) FROM member_xp WHERE user_id = \$1 AND guild_id = \$2`).
					WithArgs("u1", "g1").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, m *xp.Member) {
				if m == nil {
					t.Fatal("GetMember() returned nil member")
				}
				if m.XP != 450 || m.Level != 2 || m.TotalXP != 900 || m.MonthlyXP != 120 {
					t.Errorf("GetMember() = %+v", m)
				}
				if !m.Frozen || m.FrozenUntil == nil || !m.FrozenUntil.Equal(until) || m.FrozenBy != "mod" {
					t.Errorf("GetMember() freeze fields = %v %v %q", m.Frozen, m.FrozenUntil, m.FrozenBy)
				}
				if m.LastReset != nil {
					t.Errorf("GetMember() last reset = %v, want nil", m.LastReset)
				}
			},
		},
		{
			name: "absent member is nil without error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM member_xp`).
					WithArgs("u1", "g1").
					WillReturnError(pgx.ErrNoRows)
			},
			check: func(t *testing.T, m *xp.Member) {
				if m != nil {
					t.Errorf("GetMember() = %+v, want nil", m)
				}
			},
		},
		{
			name: "query failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM member_xp`).
					WithArgs("u1", "g1").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.setup(mock)
			repo := NewReadRepository(mock)

			m, err := repo.GetMember(context.Background(), "u1", "g1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMember() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !IsRepositoryError(err) {
				t.Errorf("GetMember() error = %T, want *RepositoryError", err)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
			expectationsWereMet(t, mock)
		})
	}
}

func TestReadRepository_CountMembersAbove(t *testing.T) {
	tests := []struct {
		name    string
		monthly bool
		pattern string
	}{
		{name: "total board", monthly: false, pattern: `SELECT COUNT\(\*\) FROM member_xp WHERE guild_id = \$1 AND xp > \$2`},
		{name: "monthly board", monthly: true, pattern: `SELECT COUNT\(\*\) FROM member_xp WHERE guild_id = \$1 AND monthly_xp > \$2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectQuery(tt.pattern).
				WithArgs("g1", pgxmock.AnyArg()).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))
			repo := NewReadRepository(mock)

			count, err := repo.CountMembersAbove(context.Background(), "g1", 300, tt.monthly)
			if err != nil {
				t.Fatalf("CountMembersAbove() error = %v", err)
			}
			if count != 4 {
				t.Errorf("CountMembersAbove() = %d, want 4", count)
			}
			expectationsWereMet(t, mock)
		})
	}
}

func TestReadRepository_TopMembers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock := newMockPool(t)
	rows := pgxmock.NewRows(memberRowColumns).
		AddRow("u1", "g1", "alice", int64(900), 3, int64(900), int64(40), false, nil, "", nil, nil, now).
		AddRow("u2", "g1", "", int64(400), 2, int64(400), int64(0), false, nil, "", nil, nil, now)
	mock.ExpectQuery(`SELECT (.+) FROM member_xp WHERE guild_id = \$1 AND xp > \$2 ORDER BY xp DESC, created_at ASC, user_id ASC LIMIT 10`).
		WithArgs("g1", pgxmock.AnyArg()).
		WillReturnRows(rows)
	repo := NewReadRepository(mock)

	members, err := repo.TopMembers(context.Background(), "g1", 10, false)
	if err != nil {
		t.Fatalf("TopMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("TopMembers() returned %d members, want 2", len(members))
	}
	if members[0].UserID != "u1" || members[1].UserID != "u2" {
		t.Errorf("TopMembers() order = %s, %s", members[0].UserID, members[1].UserID)
	}
	expectationsWereMet(t, mock)
}

func TestReadRepository_GetGuildSettings(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		want  *xp.GuildSettings
	}{
		{
			name: "stored row",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"guild_id", "xp_enabled", "xp_min", "xp_max", "xp_cooldown", "xp_rate", "updated_at"}).
					AddRow("g1", true, int64(10), int64(20), int64(30000), 1.5, now)
				mock.ExpectQuery(`SELECT (.+) FROM guild_settings WHERE guild_id = \$1`).
					WithArgs("g1").
					WillReturnRows(rows)
			},
			want: &xp.GuildSettings{
				GuildID:   "g1",
				Enabled:   true,
				XPMin:     10,
				XPMax:     20,
				Cooldown:  30 * time.Second,
				XPRate:    1.5,
				UpdatedAt: now,
			},
		},
		{
			name: "no row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM guild_settings`).
					WithArgs("g1").
					WillReturnError(pgx.ErrNoRows)
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.setup(mock)
			repo := NewReadRepository(mock)

			got, err := repo.GetGuildSettings(context.Background(), "g1")
			if err != nil {
				t.Fatalf("GetGuildSettings() error = %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("GetGuildSettings() = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("GetGuildSettings() = %+v, want %+v", *got, *tt.want)
			}
			expectationsWereMet(t, mock)
		})
	}
}

func TestReadRepository_MonthlyQueries(t *testing.T) {
	last := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)

	t.Run("list guilds", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT DISTINCT guild_id FROM member_xp ORDER BY guild_id`).
			WillReturnRows(pgxmock.NewRows([]string{"guild_id"}).AddRow("g1").AddRow("g2"))

		ids, err := NewReadRepository(mock).ListGuildIDs(context.Background())
		if err != nil {
			t.Fatalf("ListGuildIDs() error = %v", err)
		}
		if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
			t.Errorf("ListGuildIDs() = %v", ids)
		}
		expectationsWereMet(t, mock)
	})

	t.Run("last reset", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT MAX\(reset_date\) FROM monthly_resets WHERE guild_id = \$1`).
			WithArgs("g1").
			WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&last))

		got, err := NewReadRepository(mock).LastMonthlyReset(context.Background(), "g1")
		if err != nil {
			t.Fatalf("LastMonthlyReset() error = %v", err)
		}
		if got == nil || !got.Equal(last) {
			t.Errorf("LastMonthlyReset() = %v, want %v", got, last)
		}
		expectationsWereMet(t, mock)
	})

	t.Run("stale monthly", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM member_xp WHERE guild_id = \$1 AND monthly_xp > \$2 AND \(last_reset IS NULL OR last_reset < \$3\)`).
			WithArgs("g1", pgxmock.AnyArg(), last).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

		got, err := NewReadRepository(mock).CountStaleMonthly(context.Background(), "g1", last)
		if err != nil {
			t.Fatalf("CountStaleMonthly() error = %v", err)
		}
		if got != 7 {
			t.Errorf("CountStaleMonthly() = %d, want 7", got)
		}
		expectationsWereMet(t, mock)
	})

	t.Run("history", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT guild_id, user_count, reset_date FROM monthly_resets WHERE guild_id = \$1 ORDER BY reset_date DESC LIMIT 5`).
			WithArgs("g1").
			WillReturnRows(pgxmock.NewRows([]string{"guild_id", "user_count", "reset_date"}).AddRow("g1", 12, last))

		got, err := NewReadRepository(mock).ResetHistory(context.Background(), "g1", 5)
		if err != nil {
			t.Fatalf("ResetHistory() error = %v", err)
		}
		if len(got) != 1 || got[0].UserCount != 12 || !got[0].ResetDate.Equal(last) {
			t.Errorf("ResetHistory() = %+v", got)
		}
		expectationsWereMet(t, mock)
	})
}

func TestNotFoundError_UnwrapsMemberNotFound(t *testing.T) {
	err := handleError("get", entityMember, "u1", pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Fatalf("handleError() = %T, want *NotFoundError", err)
	}
	if !errors.Is(err, xp.ErrMemberNotFound) {
		t.Error("member NotFoundError should unwrap to xp.ErrMemberNotFound")
	}

	other := handleError("get", entityReward, 1, pgx.ErrNoRows)
	if errors.Is(other, xp.ErrMemberNotFound) {
		t.Error("reward NotFoundError should not unwrap to xp.ErrMemberNotFound")
	}

	if handleError("get", entityMember, "u1", nil) != nil {
		t.Error("handleError(nil) should be nil")
	}
}
