package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
)

// smsMaxLen is the single-part GSM message limit.
const smsMaxLen = 160

// Subject returns the email subject line for an alert kind.
func Subject(kind Severity) string {
	if kind == SeverityCritical {
		return "KRİTİK STOK UYARISI"
	}
	return "DÜŞÜK STOK UYARISI"
}

// EmailBody renders the plain-text alert report. The fallback threshold is
// shown for drugs without a configured one.
func EmailBody(drugs []model.Drug, kind Severity, now time.Time, fallbackThreshold int) string {
	var b strings.Builder

	if kind == SeverityCritical {
		b.WriteString("ACİL DURUM - KRİTİK STOK SEVİYESİ\n\n")
	} else {
		b.WriteString("DÜŞÜK STOK UYARISI\n\n")
	}

	fmt.Fprintf(&b, "Tarih: %s\n", now.Format("02/01/2006 15:04"))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, d := range drugs {
		fmt.Fprintf(&b, "• %s (%s)\n", d.Name, d.ActiveIngredient)
		fmt.Fprintf(&b, "  Mevcut Stok: %d adet\n", d.StockQuantity)
		fmt.Fprintf(&b, "  Kritik Seviye: %d adet\n", model.EffectiveThreshold(d, fallbackThreshold))
		fmt.Fprintf(&b, "  Fiyat: %.2f TL\n", d.Price)
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}

	b.WriteString("\nLütfen stokları acilen yenileyiniz.\n\n")
	b.WriteString("Eczane Otomasyon Sistemi\n")
	b.WriteString("Otomatik Uyarı Sistemi")

	return b.String()
}

// SMSMessage renders the short alert message: at most the first three drug
// names, an "ve N ilaç daha" suffix when truncated, capped at 160 runes.
func SMSMessage(drugs []model.Drug, kind Severity) string {
	prefix := "UYARI! "
	if kind == SeverityCritical {
		prefix = "ACIL! "
	}

	names := make([]string, 0, 3)
	for i, d := range drugs {
		if i == 3 {
			break
		}
		names = append(names, d.Name)
	}
	list := strings.Join(names, ", ")
	if len(drugs) > 3 {
		list += fmt.Sprintf(" ve %d ilaç daha", len(drugs)-3)
	}

	msg := prefix + "Stok dusuk: " + list

	runes := []rune(msg)
	if len(runes) > smsMaxLen {
		msg = string(runes[:smsMaxLen])
	}
	return msg
}
