// Package compose turns a question plus retrieval context into the final
// user-facing answer. Three terminal branches exist: a fixed off-topic
// message, a fixed escalation message when nothing was retrieved, and a
// grounded generation call for everything else.
package compose

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/classifier"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// Generator produces text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

type Config struct {
	City        string
	State       string
	CarePhone   string
	CareEmail   string
	CareHours   string
	CarePortal  string
	Temperature float32
	MaxTokens   int
}

type Composer struct {
	generator Generator
	cfg       Config
}

// tagPattern scrubs markup the model may emit despite the plain-text
// instruction.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

const retryMessage = "I apologize, but I'm having trouble processing your request. Please try again or contact customer care."

// New builds a composer. Temperature is used as given; an explicit 0 selects
// deterministic output.
func New(generator Generator, cfg Config) *Composer {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	return &Composer{generator: generator, cfg: cfg}
}

// Compose picks a response strategy and returns the answer. Generation
// failures never propagate; they degrade to a fixed apology.
func (c *Composer) Compose(ctx context.Context, question string, services []map[string]any, userLocation string) string {
	inDomain, reason := classifier.Classify(question)
	if !inDomain {
		logger.Info("Off-topic query detected", zap.String("reason", string(reason)))
		return c.OffTopicResponse()
	}

	if len(services) == 0 {
		logger.Info("No services found, escalating to customer care")
		return c.EscalationResponse()
	}

	prompt := c.buildPrompt(question, services, userLocation)

	logger.Info("Generating grounded response", zap.Int("context_services", len(services)))

	answer, err := c.generator.Generate(ctx, prompt, c.cfg.Temperature, c.cfg.MaxTokens)
	if err != nil {
		logger.Error("Failed to generate response", zap.Error(err))
		return retryMessage
	}

	answer = strings.TrimSpace(answer)
	answer = tagPattern.ReplaceAllString(answer, "")

	logger.Info("Generated response", zap.Int("response_length", len(answer)))

	return answer
}

// OffTopicResponse is the fixed reply for questions outside the service
// domain. No model call is made.
func (c *Composer) OffTopicResponse() string {
	return fmt.Sprintf(`I apologize, but I can only help with community service queries related to %s, %s.

I can help you find information about:
🏥 Healthcare services (hospitals, clinics, pharmacies)
🏛️ Civic services (police, fire, municipal offices)
⚡ Utilities (electricity, water, gas)
🎓 Educational institutions
🚌 Transportation services
🏦 Banks and financial services
🛒 Local shops and markets
And many more local services!

If you need assistance with something else, please contact:
📞 Customer Care: %s
📧 Email: %s
⏰ Available: %s`,
		c.cfg.City, c.cfg.State, c.cfg.CarePhone, c.cfg.CareEmail, c.cfg.CareHours)
}

// EscalationResponse is the fixed reply when retrieval found nothing.
func (c *Composer) EscalationResponse() string {
	return fmt.Sprintf(`I apologize, but I couldn't find the specific information you're looking for in my current database.

For immediate assistance, please contact:

📞 **Greater %s Corporation Helpline**
   Phone: %s
   Available: %s

📧 **Email Support**
   %s

🌐 **Online Portal**
   Visit: %s

A customer care representative will be happy to assist you with your specific query.`,
		c.cfg.City, c.cfg.CarePhone, c.cfg.CareHours, c.cfg.CareEmail, c.cfg.CarePortal)
}

func (c *Composer) buildPrompt(question string, services []map[string]any, userLocation string) string {
	contextText := formatContext(services)

	locationInfo := ""
	location := userLocation
	if location != "" {
		locationInfo = " in " + location
	} else {
		location = "Not specified"
	}

	return fmt.Sprintf(`You are a helpful community helpdesk assistant for %s, %s.

CRITICAL RULES:
1. Answer ONLY in PLAIN TEXT - NO HTML, NO formatting tags, NO markdown
2. Answer based ONLY on the service information provided below
3. Be concise, friendly, and conversational
4. Include: service name, address, contact, hours, fees
5. Use simple bullet points with dashes (-) if listing multiple services
6. Do NOT include any HTML tags like <div>, <span>, <strong>, etc.

User Location%s: %s

Available Services:
%s

User Question: %s

Provide a helpful PLAIN TEXT answer (no HTML tags):`,
		c.cfg.City, c.cfg.State, locationInfo, location, contextText, question)
}

// formatContext renders every context entry as a verbose block the model can
// quote from. Optional fields appear only when present.
func formatContext(services []map[string]any) string {
	separator := strings.Repeat("=", 60)
	blocks := make([]string, 0, len(services))

	for i, service := range services {
		var b strings.Builder
		fmt.Fprintf(&b, "\n%s\nSERVICE %d\n%s", separator, i+1, separator)
		fmt.Fprintf(&b, "\nName: %s", field(service, "service_name"))
		fmt.Fprintf(&b, "\nCategory: %s (%s)", field(service, "category"), field(service, "subcategory"))
		fmt.Fprintf(&b, "\nDescription: %s", field(service, "description"))
		fmt.Fprintf(&b, "\nAddress: %s, %s", field(service, "address"), field(service, "locality"))
		fmt.Fprintf(&b, "\nCity: %s - %s", field(service, "city"), field(service, "pincode"))

		appendIfPresent(&b, service, "contact_phone", "Phone")
		appendIfPresent(&b, service, "contact_email", "Email")
		appendIfPresent(&b, service, "website", "Website")
		appendIfPresent(&b, service, "hours", "Operating Hours")
		appendIfPresent(&b, service, "fees", "Fees")
		appendIfPresent(&b, service, "payment_options", "Payment Options")
		if stringValue(service, "wheelchair_accessible") == "yes" {
			b.WriteString("\nAccessibility: Wheelchair accessible")
		}
		if stringValue(service, "emergency_service") == "yes" {
			b.WriteString("\n⚠️ EMERGENCY SERVICE AVAILABLE 24/7")
		}
		appendIfPresent(&b, service, "languages_supported", "Languages")
		appendIfPresent(&b, service, "notes", "Additional Info")

		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, "\n")
}

func appendIfPresent(b *strings.Builder, service map[string]any, key, label string) {
	if v := stringValue(service, key); v != "" {
		fmt.Fprintf(b, "\n%s: %s", label, v)
	}
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func field(m map[string]any, key string) string {
	if v := stringValue(m, key); v != "" {
		return v
	}
	return "N/A"
}
