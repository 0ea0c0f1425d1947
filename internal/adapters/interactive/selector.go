package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectDeployment asks the operator to pick one of several matching records
func (s *SelectorAdapter) SelectDeployment(ctx context.Context, records []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error) {
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	if len(records) == 1 {
		return records[0], nil
	}

	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		ids := lo.Map(records, func(r *models.DeploymentRecord, _ int) string { return r.ID() })
		return nil, fmt.Errorf("%d deployments match, pass an address or SYMBOL@network: %s",
			len(records), strings.Join(ids, ", "))
	}

	options := formatDeploymentOptions(records)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, / to search, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:     prompt,
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, promptError(err)
	}
	return records[index], nil
}

// Confirm asks a yes/no question. Non-interactive mode never confirms.
func (s *SelectorAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if s.config.NonInteractive {
		return false, nil
	}

	confirm := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, promptError(err)
	}
	return true, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return fmt.Errorf("%w: selection interrupted", domain.ErrCancelled)
	}
	return fmt.Errorf("selection failed: %w", err)
}

// formatDeploymentOptions renders "SYMBOL@network 0x... (date, status)"
func formatDeploymentOptions(records []*models.DeploymentRecord) []string {
	options := make([]string, len(records))
	for i, record := range records {
		name := color.New(color.FgWhite, color.Bold).Sprint(record.DisplayName())
		address := color.New(color.FgBlue).Sprint(record.ContractAddress.Hex())
		details := fmt.Sprintf("%s, %s", record.DeploymentTime.Format("2006-01-02 15:04"), strings.ToLower(string(record.VerificationStatus)))
		if !record.Confirmed() {
			details += ", " + color.New(color.FgYellow).Sprint("unconfirmed")
		}
		options[i] = fmt.Sprintf("%s %s (%s)", name, address, details)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var (
	_ usecase.DeploymentSelector = (*SelectorAdapter)(nil)
	_ usecase.Confirmer          = (*SelectorAdapter)(nil)
)
