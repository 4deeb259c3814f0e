package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	qb "github.com/riskibarqy/ajnabicam-profile/internal/platform/querybuilder"
)

const (
	profilePrimaryKey     = "user_profiles_pkey"
	referralCodeUniqueKey = "user_profiles_own_referral_code_key"
)

// ProfileRepository stores each profile as one JSONB document so that absent
// and null fields stay distinguishable.
type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (profile.Profile, bool, error) {
	query, args, err := qb.Select("id", "doc").
		From(profileTable).
		Where(qb.Eq("id", strings.TrimSpace(id))).
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("build get profile query: %w", err)
	}

	return r.getOne(ctx, r.db, query, args...)
}

func (r *ProfileRepository) Create(ctx context.Context, item profile.Profile) error {
	doc, err := encodePatch(profile.PatchFrom(item))
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel(profileTable, profileInsertModel{
		ID:  strings.TrimSpace(item.ID),
		Doc: doc,
	}, "")
	if err != nil {
		return fmt.Errorf("build create profile query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == profilePrimaryKey {
				return profile.ErrProfileExists
			}
			if constraint == referralCodeUniqueKey {
				return profile.ErrReferralCodeTaken
			}
		}
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) Merge(ctx context.Context, id string, patch *profile.Patch) error {
	if patch.Len() == 0 {
		return nil
	}
	return mergeDocument(ctx, r.db, id, patch)
}

func (r *ProfileRepository) FindByReferralCode(ctx context.Context, code string) (profile.Profile, bool, error) {
	query, args, err := qb.Select("id", "doc").
		From(profileTable).
		Where(qb.Eq("own_referral_code", code)).
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("build find profile by referral code query: %w", err)
	}

	return r.getOne(ctx, r.db, query, args...)
}

func (r *ProfileRepository) ApplyReferral(ctx context.Context, grant profile.ReferralGrant) error {
	if grant.UserID == grant.ReferrerID {
		return profile.ErrSelfReferral
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply referral: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Rows are locked in id order so two opposite redemptions cannot deadlock.
	lockQuery, lockArgs, err := qb.Select("id", "doc").
		From(profileTable).
		Where(qb.In("id", grant.UserID, grant.ReferrerID)).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock referral profiles query: %w", err)
	}

	var rows []profileTableModel
	if err := tx.SelectContext(ctx, &rows, lockQuery, lockArgs...); err != nil {
		return fmt.Errorf("lock referral profiles: %w", err)
	}

	var (
		caller      profile.Profile
		callerFound bool
		referrerOK  bool
	)
	for _, row := range rows {
		switch row.ID {
		case grant.UserID:
			caller, err = profileFromRow(row)
			if err != nil {
				return err
			}
			callerFound = true
		case grant.ReferrerID:
			referrerOK = true
		}
	}
	if !callerFound {
		return profile.ErrProfileNotFound
	}
	if !referrerOK {
		return profile.ErrInvalidReferralCode
	}
	if caller.IsReferred() {
		return profile.ErrAlreadyReferred
	}

	if err := mergeDocument(ctx, tx, grant.UserID, grant.Patch); err != nil {
		return err
	}

	incQuery, incArgs, err := incrementReferralCountQuery(grant.ReferrerID, grant.At)
	if err != nil {
		return fmt.Errorf("build increment referral count query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, incQuery, incArgs...); err != nil {
		return fmt.Errorf("increment referral count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply referral tx: %w", err)
	}

	return nil
}

func (r *ProfileRepository) ListExpiredPremium(ctx context.Context, now time.Time, limit int) ([]profile.Profile, error) {
	query, args, err := qb.Select("id", "doc").
		From(profileTable).
		Where(
			qb.Expr("doc->>'premiumUntil' IS NOT NULL"),
			qb.Expr("(doc->>'premiumUntil')::timestamptz <= ?", now.UTC()),
		).
		OrderBy("(doc->>'premiumUntil')::timestamptz").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list expired premium query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list expired premium: %w", err)
	}

	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		item, err := profileFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *ProfileRepository) ClearExpiredPremium(ctx context.Context, id string, now time.Time) (bool, error) {
	query, args, err := clearExpiredPremiumQuery(id, now)
	if err != nil {
		return false, fmt.Errorf("build clear expired premium query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("clear expired premium: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected clear expired premium: %w", err)
	}
	return affected > 0, nil
}

func (r *ProfileRepository) getOne(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (profile.Profile, bool, error) {
	var row profileTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}

	item, err := profileFromRow(row)
	if err != nil {
		return profile.Profile{}, false, err
	}
	return item, true, nil
}

func mergeDocument(ctx context.Context, exec sqlx.ExecerContext, id string, patch *profile.Patch) error {
	doc, err := encodePatch(patch)
	if err != nil {
		return err
	}

	query, args, err := qb.Update(profileTable).
		SetExpr("doc", "doc || ?::jsonb", doc).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", strings.TrimSpace(id))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build merge profile query: %w", err)
	}

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == referralCodeUniqueKey {
			return profile.ErrReferralCodeTaken
		}
		return fmt.Errorf("merge profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected merge profile: %w", err)
	}
	if affected == 0 {
		return profile.ErrProfileNotFound
	}

	return nil
}

var _ profile.Repository = (*ProfileRepository)(nil)

func incrementReferralCountQuery(referrerID string, at time.Time) (string, []any, error) {
	return qb.Update(profileTable).
		SetExpr("doc", "jsonb_set(jsonb_set(doc, '{referralCount}', to_jsonb(COALESCE((doc->>'referralCount')::bigint, 0) + 1)), '{updatedAt}', to_jsonb(?::text))",
			documentTime(at)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", referrerID)).
		ToSQL()
}

// clearExpiredPremiumQuery only matches while premiumUntil is still at or
// before now, so a grant renewed in between is left alone.
func clearExpiredPremiumQuery(id string, now time.Time) (string, []any, error) {
	return qb.Update(profileTable).
		SetExpr("doc", "jsonb_set(jsonb_set(doc, '{premiumUntil}', 'null'::jsonb), '{updatedAt}', to_jsonb(?::text))",
			documentTime(now)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", strings.TrimSpace(id)),
			qb.Expr("doc->>'premiumUntil' IS NOT NULL"),
			qb.Expr("(doc->>'premiumUntil')::timestamptz <= ?", now.UTC()),
		).
		ToSQL()
}
