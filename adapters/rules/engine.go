package rules

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
)

// Canned reply bodies. These are the assistant's entire "knowledge";
// there is no model behind them.
const (
	identityReply = "I am ARIA - Advanced Responsive Intelligence Assistant. I'm your personal AI companion designed to help you across all your devices with voice interaction, system monitoring, and intelligent task management."

	greetingReply = "Hello! I'm ARIA, your advanced AI assistant. I can help you with system monitoring, device management, internet searches, and much more. What would you like me to do?"

	searchReply = "I have access to real-time internet data and can search across multiple platforms. However, in this demo environment, I'm simulating web connectivity. In a full deployment, I would access live APIs for Google Search, Wikipedia, news feeds, and other data sources to provide you with current information."

	elonMuskReply = "Elon Musk is a prominent entrepreneur and business magnate known for:\n• CEO of Tesla (electric vehicles)\n• CEO of SpaceX (aerospace)\n• Owner of X (formerly Twitter)\n• Co-founder of Neuralink (brain-computer interfaces)\n• Founder of The Boring Company (tunnel construction)\n• Co-founder of PayPal\n\nHe's known for his ambitious goals in sustainable energy, space exploration, and advancing human technology. Would you like more specific information about any of his ventures?"

	deviceReply = "I can help you manage your device ecosystem. Currently monitoring your connected devices with real-time sync capabilities. You can add new devices through the device panel or ask me to scan for nearby devices. Would you like me to scan for new devices or help you configure existing ones?"

	capabilitiesReply = "I'm ARIA with advanced capabilities:\n• Voice recognition and synthesis\n• Real-time system monitoring (GPU, CPU, RAM)\n• Cross-device synchronization\n• Internet connectivity and search\n• Device management and control\n• Adaptive learning from your preferences\n• Task automation and scheduling\n• File management across devices\n• Smart home integration ready\n• Contextual awareness and memory\n\nWhat specific task would you like help with?"

	connectionReply = "Yes, I'm fully connected and operational! I have access to:\n• Your device ecosystem (laptop, tablet, mobile)\n• System monitoring capabilities\n• Internet connectivity for searches\n• Cross-device data synchronization\n• Voice processing systems\n\nAll systems are green and ready for your commands."

	defaultReply = "I understand your request. As ARIA, I'm processing your query with my advanced neural networks. While I have extensive capabilities for system control, device management, and information retrieval, I'm currently running in a demonstration mode. In a full deployment, I would have direct access to system APIs, internet services, and device controls to fulfill your request completely."
)

// rule matches when the lowercased utterance contains any of its
// keywords.
type rule struct {
	name     string
	keywords []string
	reply    func(e *Engine) string
}

func (r rule) matches(normalized string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func static(reply string) func(*Engine) string {
	return func(*Engine) string { return reply }
}

// Engine is a canned keyword responder standing in for a real language
// model. Rules are evaluated in order and the first match wins, so the
// table below is ordering-significant: broad categories such as
// "system" come before narrower ones and shadow them for inputs that
// match both. That shadowing is preserved deliberately for parity with
// the shipped behavior.
type Engine struct {
	rules   []rule
	stats   repositories.StatsProvider
	latency LatencyPolicy
	logger  *zap.Logger
}

// NewEngine creates the rule engine. stats supplies the utilization
// figures for the system-status reply; latency pads every response
// with an artificial thinking delay (zero value disables it).
func NewEngine(stats repositories.StatsProvider, latency LatencyPolicy, logger *zap.Logger) *Engine {
	e := &Engine{
		stats:   stats,
		latency: latency,
		logger:  logger,
	}
	e.rules = []rule{
		{name: "identity", keywords: []string{"name", "who are you", "what are you"}, reply: static(identityReply)},
		{name: "greeting", keywords: []string{"hello", "hi", "hey"}, reply: static(greetingReply)},
		{name: "system", keywords: []string{"gpu", "system", "performance"}, reply: (*Engine).systemReply},
		{name: "search", keywords: []string{"google", "search", "online", "internet"}, reply: static(searchReply)},
		{name: "elon_musk", keywords: []string{"elon musk"}, reply: static(elonMuskReply)},
		{name: "devices", keywords: []string{"device", "connect", "add device", "remove device"}, reply: static(deviceReply)},
		{name: "capabilities", keywords: []string{"what can you do", "capabilities", "features"}, reply: static(capabilitiesReply)},
		{name: "connection", keywords: []string{"connected", "connection"}, reply: static(connectionReply)},
	}
	return e
}

// Respond implements repositories.Responder. It only fails on context
// cancellation; every utterance has a reply.
func (e *Engine) Respond(ctx context.Context, utterance string) (string, error) {
	if err := e.latency.Wait(ctx); err != nil {
		return "", err
	}

	normalized := strings.ToLower(utterance)
	for _, r := range e.rules {
		if r.matches(normalized) {
			e.logger.Debug("Rule matched",
				zap.String("rule", r.name),
				zap.String("utterance", utterance))
			return r.reply(e), nil
		}
	}

	e.logger.Debug("No rule matched, using default reply",
		zap.String("utterance", utterance))
	return defaultReply, nil
}

// systemReply synthesizes a status report from freshly sampled
// figures.
func (e *Engine) systemReply() string {
	s := e.stats.Sample()
	return fmt.Sprintf(
		"Current system status:\n• GPU Usage: %d%%\n• CPU Usage: %d%%\n• RAM Usage: %d%%\n• Temperature: %d°C\n\nAll systems operating within normal parameters.",
		s.GPU, s.CPU, s.RAM, s.Temperature)
}
