package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facture/internal/model"
	"facture/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type TaxRuleRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=TVA"`
	Rate          string `json:"rate" binding:"required"`           // Decimal string, e.g. "0.20"
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
	Description   string `json:"description"`
}

type TaxRuleResponse struct {
	ID            string  `json:"id"`
	TaxType       string  `json:"tax_type"`
	Rate          string  `json:"rate"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

type ActiveTaxRateResponse struct {
	TaxType string `json:"tax_type"`
	Rate    string `json:"rate"`
	RuleID  string `json:"rule_id,omitempty"` // empty when the configured default applies
}

// --- Interface ---

type TaxService interface {
	GetTaxRules(ctx context.Context) ([]TaxRuleResponse, error)
	CreateTaxRule(ctx context.Context, actor string, req TaxRuleRequest) (TaxRuleResponse, error)
	UpdateTaxRule(ctx context.Context, actor, id string, req TaxRuleRequest) (TaxRuleResponse, error)
	DeleteTaxRule(ctx context.Context, actor, id string) error
	GetActiveTaxRate(ctx context.Context, taxType string) (ActiveTaxRateResponse, error)
	RateOn(ctx context.Context, taxType string, date time.Time) (decimal.Decimal, error)
}

type taxService struct {
	taxRepo     repository.TaxRuleRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	defaultRate decimal.Decimal
}

// NewTaxService builds the tax service. defaultRate applies when no rule covers a date.
func NewTaxService(
	taxRepo repository.TaxRuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	defaultRate decimal.Decimal,
) TaxService {
	return &taxService{
		taxRepo:     taxRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		defaultRate: defaultRate,
	}
}

// --- Implementation ---

func (s *taxService) GetTaxRules(ctx context.Context) ([]TaxRuleResponse, error) {
	rules, err := s.taxRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}
	return res, nil
}

func (s *taxService) CreateTaxRule(ctx context.Context, actor string, req TaxRuleRequest) (TaxRuleResponse, error) {
	rate, effectiveFrom, effectiveTo, err := parseTaxRuleFields(req.Rate, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule := model.TaxRule{
		TaxType:       req.TaxType,
		Rate:          rate,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   req.Description,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkOverlap(txCtx, req.TaxType, effectiveFrom, effectiveTo, nil); err != nil {
			return err
		}
		if err := s.taxRepo.Create(txCtx, &rule); err != nil {
			return fmt.Errorf("failed to create tax rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateTaxRule, rule.ID.String(), req.TaxType+" "+rate.StringFixed(4), req)
	})
	if err != nil {
		return TaxRuleResponse{}, err
	}

	return toTaxRuleResponse(rule), nil
}

func (s *taxService) UpdateTaxRule(ctx context.Context, actor, id string, req TaxRuleRequest) (TaxRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return TaxRuleResponse{}, invalidf("invalid tax rule id")
	}

	rate, effectiveFrom, effectiveTo, err := parseTaxRuleFields(req.Rate, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	var rule *model.TaxRule
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rule, err = s.taxRepo.FindByID(txCtx, ruleID)
		if err != nil {
			return lookupErr("tax rule", err)
		}
		if err := s.checkOverlap(txCtx, req.TaxType, effectiveFrom, effectiveTo, &ruleID); err != nil {
			return err
		}

		rule.TaxType = req.TaxType
		rule.Rate = rate
		rule.EffectiveFrom = effectiveFrom
		rule.EffectiveTo = effectiveTo
		rule.Description = req.Description

		if err := s.taxRepo.Update(txCtx, rule); err != nil {
			return fmt.Errorf("failed to update tax rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateTaxRule, rule.ID.String(), req.TaxType+" "+rate.StringFixed(4), req)
	})
	if err != nil {
		return TaxRuleResponse{}, err
	}

	return toTaxRuleResponse(*rule), nil
}

func (s *taxService) DeleteTaxRule(ctx context.Context, actor, id string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return invalidf("invalid tax rule id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rule, err := s.taxRepo.FindByID(txCtx, ruleID)
		if err != nil {
			return lookupErr("tax rule", err)
		}
		if err := s.taxRepo.Delete(txCtx, ruleID); err != nil {
			return fmt.Errorf("failed to delete tax rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteTaxRule, rule.ID.String(), rule.TaxType+" "+rule.Rate.StringFixed(4), map[string]string{"deleted_id": id})
	})
}

func (s *taxService) GetActiveTaxRate(ctx context.Context, taxType string) (ActiveTaxRateResponse, error) {
	rule, err := s.taxRepo.FindActiveByType(ctx, taxType, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ActiveTaxRateResponse{TaxType: taxType, Rate: s.defaultRate.StringFixed(4)}, nil
		}
		return ActiveTaxRateResponse{}, fmt.Errorf("failed to query active tax rate: %w", err)
	}

	return ActiveTaxRateResponse{
		TaxType: rule.TaxType,
		Rate:    rule.Rate.StringFixed(4),
		RuleID:  rule.ID.String(),
	}, nil
}

// RateOn finds the rate in force on date:
// effective_from <= date AND (effective_to IS NULL OR effective_to >= date).
func (s *taxService) RateOn(ctx context.Context, taxType string, date time.Time) (decimal.Decimal, error) {
	rule, err := s.taxRepo.FindActiveByType(ctx, taxType, date.UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.defaultRate, nil
		}
		return decimal.Zero, fmt.Errorf("failed to query tax rule: %w", err)
	}
	return rule.Rate, nil
}

// --- Helpers ---

func parseTaxRuleFields(rateStr, fromStr, toStr string) (decimal.Decimal, time.Time, *time.Time, error) {
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, invalidf("invalid rate value %q", rateStr)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, time.Time{}, nil, invalidf("rate must be a fraction between 0 and 1")
	}

	effectiveFrom, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, invalidf("invalid effective_from date format (expected YYYY-MM-DD)")
	}

	var effectiveTo *time.Time
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return decimal.Zero, time.Time{}, nil, invalidf("invalid effective_to date format (expected YYYY-MM-DD)")
		}
		if t.Before(effectiveFrom) {
			return decimal.Zero, time.Time{}, nil, invalidf("effective_to is before effective_from")
		}
		// a rule stays in force for the whole last day
		t = t.Add(24*time.Hour - time.Nanosecond)
		effectiveTo = &t
	}

	return rate, effectiveFrom, effectiveTo, nil
}

func (s *taxService) checkOverlap(ctx context.Context, taxType string, from time.Time, to *time.Time, excludeID *uuid.UUID) error {
	count, err := s.taxRepo.FindOverlapping(ctx, taxType, from, to, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("an overlapping %s rule %w for this period", taxType, ErrConflict)
	}
	return nil
}

func toTaxRuleResponse(r model.TaxRule) TaxRuleResponse {
	resp := TaxRuleResponse{
		ID:            r.ID.String(),
		TaxType:       r.TaxType,
		Rate:          r.Rate.StringFixed(4),
		EffectiveFrom: r.EffectiveFrom.Format("2006-01-02"),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &s
	}
	return resp
}
