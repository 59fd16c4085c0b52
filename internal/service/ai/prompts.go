package ai

import (
	"fmt"
	"strings"

	"github.com/anamnezgpt/backend/internal/model/interview"
	"github.com/anamnezgpt/backend/internal/model/persona"
)

// Instruction fragments appended to the persona's system prompt. The greeting
// doubles as the first question of the interview.
const (
	greetingInstruction = " Bu ilk karşılaşman. Kendini tanıt, sıcak bir şekilde selamla " +
		"ve ilk açık uçlu psikolojik soruyu sor. Kısa ve öz ol, " +
		"maksimum 3-4 cümle."

	greetingUserMessage = "Merhaba, seninle konuşmak istiyorum."

	turnInstruction = " Danışanın son cevabına kısa bir yorum/karşılık ver (1-2 cümle), " +
		"empati göster veya anlayış belirt, sonra yeni bir açık uçlu psikolojik " +
		"soru sor. Toplamda 3-4 cümleyi geçme."

	// extendedInstruction is added once ten answers have accumulated and stays
	// on every later call of the session.
	extendedInstruction = " \n\nÖNEMLİ: Görüşmede önemli bir noktaya ulaştın (10+ mesaj). " +
		"Klinik bir değerlendirme için yeterli verin var mı değerlendir. " +
		"Eğer YOKSA, eksik bilgiyi özellikle sor. " +
		"Eğer VARSA, sohbeti doğal bir şekilde sürdür ama derinlemesine " +
		"sorular sormaya devam et."

	summarySystemPrompt = "Sen bir deneyimli psikolojik danışmansın."

	summaryInstruction = "Yukarıdaki yanıtlara göre bu kişinin ruhsal durumunu psikolojik açıdan gözlemle. " +
		"Duygusal eğilimlerini, zorlandığı alanları ve dikkat çeken noktaları kısa ama öz " +
		"bir dille analiz et. Lütfen tanı koy. 4-5 cümlelik profesyonel gözlem yap. " +
		"Açıklayıcı, özgün ve sadece Türkçe yaz."
)

// Fallback replies substituted whenever the upstream model fails; the
// conversation must keep moving regardless of gateway health.
const (
	fallbackTurn    = "Anlıyorum... Peki bunu biraz daha açar mısın?"
	fallbackSummary = "Analiz oluşturulamadı."
)

func fallbackGreeting(p persona.Persona) string {
	return fmt.Sprintf("Merhaba! Ben %s. Seninle tanıştığıma memnun oldum. Bugün seni buraya getiren nedir?", p.Name)
}

func buildTurnSystemPrompt(p persona.Persona, extended bool) string {
	prompt := p.SystemPrompt + turnInstruction
	if extended {
		prompt += extendedInstruction
	}
	return prompt
}

func buildSummaryContent(pairs []interview.QAPair) string {
	var builder strings.Builder
	builder.WriteString("Aşağıda bir kişinin psikolojik sorulara verdiği yanıtlar var:\n\n")
	for i, pair := range pairs {
		fmt.Fprintf(&builder, "%d. Soru: %s\n   Cevap: %s\n\n", i+1, pair.Question, pair.Answer)
	}
	builder.WriteString(summaryInstruction)
	return builder.String()
}
