package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	labelStyle     = color.New(color.Faint)
	headerStyle    = color.New(color.FgCyan, color.Bold)
	sectionStyle   = color.New(color.Bold, color.FgHiWhite)
	addressStyle   = color.New(color.FgWhite)
	symbolStyle    = color.New(color.FgGreen, color.Bold)
	timestampStyle = color.New(color.Faint)
	pendingStyle   = color.New(color.FgYellow)
	verifiedStyle  = color.New(color.FgGreen)
	failedStyle    = color.New(color.FgRed)
	hintStyle      = color.New(color.FgCyan)

	titleCase = cases.Title(language.English)
	numbers   = message.NewPrinter(language.English)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// WriteJSON writes v as indented JSON
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// field prints an aligned "label: value" line
func field(out io.Writer, label string, value any) {
	fmt.Fprintf(out, "  %s %v\n", labelStyle.Sprintf("%-22s", label+":"), value)
}

// tokenAmount renders base units as whole tokens with thousands separators
func tokenAmount(v *big.Int, decimals uint8) string {
	formatted := models.FormatUnits(v, decimals)
	whole, frac, _ := strings.Cut(formatted, ".")
	if n, ok := new(big.Int).SetString(whole, 10); ok && n.IsInt64() {
		whole = numbers.Sprintf("%d", n.Int64())
	}
	if frac != "" {
		return whole + "." + frac
	}
	return whole
}

// statusLabel renders a verification status with an icon
func statusLabel(status models.VerificationStatus) string {
	name := titleCase.String(strings.ToLower(string(status)))
	switch status {
	case models.VerificationStatusVerified:
		return verifiedStyle.Sprint("✓ " + name)
	case models.VerificationStatusFailed:
		return failedStyle.Sprint("✗ " + name)
	case models.VerificationStatusPending:
		return pendingStyle.Sprint("⏳ " + name)
	default:
		return labelStyle.Sprint("○ " + name)
	}
}

func yesNo(b bool) string {
	if b {
		return verifiedStyle.Sprint("yes")
	}
	return labelStyle.Sprint("no")
}

func explorerLink(explorer string, address common.Address) string {
	if explorer == "" {
		return ""
	}
	return strings.TrimSuffix(explorer, "/") + "/address/" + address.Hex()
}
