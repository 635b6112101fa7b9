// Package advisor turns usage and efficiency numbers into canned guidance:
// the short recommendation list attached to forecasts and the longer
// personalized tip cards served on the tips surface.
package advisor

// maxRecommendations caps the forecast recommendation list.
const maxRecommendations = 4

var starterRecommendations = []string{
	"Start tracking your energy usage with the Bill Calculator",
	"Enter your meter readings to get personalized predictions",
	"Check back after a few calculations for AI insights",
}

// Recommendations builds the ordered tip list for the given usage level and
// efficiency score. Buckets stack in order until the cap; zero usage returns
// the fixed getting-started list and ignores every other rule.
func Recommendations(usage, efficiency float64) []string {
	if usage == 0 {
		out := make([]string, len(starterRecommendations))
		copy(out, starterRecommendations)
		return out
	}

	var recs []string
	switch {
	case usage > 300:
		recs = append(recs,
			"Your usage is quite high. Consider reducing AC usage during peak hours",
			"Switch to energy-efficient appliances to reduce consumption")
	case usage > 150:
		recs = append(recs,
			"Moderate usage detected. Optimize appliance usage timing",
			"Consider using natural lighting during daytime")
	default:
		recs = append(recs, "Good energy usage! Maintain current consumption patterns")
	}

	switch {
	case efficiency < 50:
		recs = append(recs,
			"Focus on improving energy efficiency with LED bulbs",
			"Unplug devices when not in use to reduce phantom loads")
	case efficiency < 75:
		recs = append(recs,
			"Regular maintenance of appliances can improve efficiency",
			"Use programmable thermostats for better control")
	}

	recs = append(recs, "Monitor your usage regularly for better energy management")

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// Tip is one card on the tips surface.
type Tip struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Savings     string `json:"savings"`
	Difficulty  string `json:"difficulty"`
	Priority    string `json:"priority"`
}

// Tips returns the personalized tip list for the given usage level. Priority
// of the base tips shifts with usage; zero usage leads with a getting-started
// card and high usage prepends an alert card.
func Tips(usage float64) []Tip {
	base := []Tip{
		{
			ID:          "1",
			Category:    "Lighting",
			Title:       "Switch to LED Bulbs",
			Description: "LED bulbs use 75% less energy than incandescent bulbs and last 25 times longer",
			Savings:     "₹200/month",
			Difficulty:  "Easy",
			Priority:    priorityAbove(usage, 100),
		},
		{
			ID:          "2",
			Category:    "Cooling",
			Title:       "Optimize AC Temperature",
			Description: "Set your AC to 24°C instead of 22°C. Each degree higher can save 6% energy",
			Savings:     "₹300/month",
			Difficulty:  "Easy",
			Priority:    priorityAbove(usage, 200),
		},
		{
			ID:          "3",
			Category:    "Appliances",
			Title:       "Unplug Devices When Not in Use",
			Description: "Electronics consume power even when turned off. Unplug to avoid phantom loads",
			Savings:     "₹150/month",
			Difficulty:  "Easy",
			Priority:    "Medium",
		},
		{
			ID:          "4",
			Category:    "Water Heating",
			Title:       "Use Timer for Water Heater",
			Description: "Heat water only when needed. Use a timer to automatically turn off the heater",
			Savings:     "₹250/month",
			Difficulty:  "Medium",
			Priority:    "Low",
		},
		{
			ID:          "5",
			Category:    "Lighting",
			Title:       "Use Natural Light",
			Description: "Open curtains and blinds during daytime to reduce artificial lighting needs",
			Savings:     "₹100/month",
			Difficulty:  "Easy",
			Priority:    "Medium",
		},
		{
			ID:          "6",
			Category:    "Appliances",
			Title:       "Regular Appliance Maintenance",
			Description: "Clean AC filters, defrost refrigerator, and service appliances regularly",
			Savings:     "₹180/month",
			Difficulty:  "Medium",
			Priority:    priorityAbove(usage, 250),
		},
	}
	if usage > 150 {
		base[3].Priority = "High"
	}

	if usage == 0 {
		starter := Tip{
			ID:          "start",
			Category:    "Getting Started",
			Title:       "Start Tracking Your Usage",
			Description: "Use the Bill Calculator to enter your meter readings and begin monitoring your energy consumption",
			Savings:     "Track to save",
			Difficulty:  "Easy",
			Priority:    "High",
		}
		return append([]Tip{starter}, base[:3]...)
	}

	if usage > 300 {
		alert := Tip{
			ID:          "high-usage",
			Category:    "Urgent",
			Title:       "High Usage Alert",
			Description: "Your usage is quite high. Focus on reducing AC usage and switching to efficient appliances immediately",
			Savings:     "₹500/month",
			Difficulty:  "Medium",
			Priority:    "Critical",
		}
		return append([]Tip{alert}, base...)
	}

	return base
}

func priorityAbove(usage, threshold float64) string {
	if usage > threshold {
		return "High"
	}
	return "Medium"
}
