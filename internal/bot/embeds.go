package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ilng/roster/internal/ranks"
)

// Component custom IDs.
const (
	IDRanks        = "faq_ranks"
	IDHistory      = "faq_history"
	IDRecruitment  = "faq_recruitment"
	IDBackToRanks  = "back_to_ranks"
	IDBackToMain   = "back_to_main_faq"
	IDRankCategory = "rank_category"
)

const (
	colorGreen     = 0x4A5D23
	colorBrown     = 0x8B4513
	colorSteelBlue = 0x4682B4
	colorGold      = 0xFFD700
	colorBlue      = 0x0033A0
	colorDarkGreen = 0x006B3F

	footer = "Illinois National Guard"

	recruitmentURL = "https://www.nationalguard.com/select-your-state"
)

// Message is an embed with its interactive components.
type Message struct {
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

func single(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) Message {
	return Message{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: components}},
	}
}

func backButton(id, label string) discordgo.Button {
	return discordgo.Button{
		CustomID: id,
		Label:    label,
		Style:    discordgo.SecondaryButton,
		Emoji:    &discordgo.ComponentEmoji{Name: "⬅️"},
	}
}

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

// MainMenu is the entry point posted to the FAQ channel.
func MainMenu(now time.Time) Message {
	embed := &discordgo.MessageEmbed{
		Color:       colorGreen,
		Title:       logoEmoji + " FAQ - Illinois National Guard",
		Description: "Welcome to the **Illinois National Guard** information centre!\n\nPick a topic to learn more:",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎖️ Ranks", Value: "The US Army rank structure", Inline: true},
			{Name: "📚 History", Value: "History of the Illinois National Guard", Inline: true},
			{Name: "📝 Recruitment", Value: "How to join", Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp: timestamp(now),
	}
	return single(embed,
		discordgo.Button{CustomID: IDRanks, Label: "Ranks", Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: "🎖️"}},
		discordgo.Button{CustomID: IDHistory, Label: "History", Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: "📚"}},
		discordgo.Button{CustomID: IDRecruitment, Label: "Recruitment", Style: discordgo.SuccessButton, Emoji: &discordgo.ComponentEmoji{Name: "📝"}},
	)
}

type tierInfo struct {
	label string
	emoji string
	title string
	color int
}

var tiers = map[ranks.Tier]tierInfo{
	ranks.TierEnlisted: {"Enlisted", "👥", "Enlisted Ranks", colorBrown},
	ranks.TierWarrant:  {"Warrant Officers", "⚔️", "Warrant Officers", colorSteelBlue},
	ranks.TierOfficer:  {"Officers", "⭐", "Officer Ranks", colorGold},
}

func codes(rs []ranks.Rank) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Code
	}
	return out
}

// RanksMenu summarises the tiers and offers a tier picker.
func RanksMenu(now time.Time) Message {
	embed := &discordgo.MessageEmbed{
		Color:       colorGreen,
		Title:       logoEmoji + " Military Ranks - US Army",
		Description: "The **Illinois National Guard** uses the US Army rank system.\n\nPick a category below for details:",
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp:   timestamp(now),
	}
	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    IDRankCategory,
		Placeholder: "Pick a rank category",
	}
	for _, tier := range ranks.Tiers() {
		info := tiers[tier]
		rs := ranks.ByTier(tier)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s", info.emoji, info.label),
			Value: fmt.Sprintf("From %s to %s", rs[0].Label(), rs[len(rs)-1].Label()),
		})
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label:       info.label,
			Value:       string(tier),
			Description: strings.Join(codes(rs), ", "),
			Emoji:       &discordgo.ComponentEmoji{Name: info.emoji},
		})
	}
	return single(embed, menu)
}

// RankDetails lists every rank of a tier. ok is false for unknown tiers.
func RankDetails(tier ranks.Tier, now time.Time) (Message, bool) {
	info, ok := tiers[tier]
	if !ok {
		return Message{}, false
	}
	embed := &discordgo.MessageEmbed{
		Color:       info.color,
		Title:       fmt.Sprintf("%s %s", info.emoji, info.title),
		Description: "Rank details:",
		Timestamp:   timestamp(now),
	}
	for _, r := range ranks.ByTier(tier) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s - %s", RankEmoji(r.Code), r.Code, r.Name),
			Value:  fmt.Sprintf("Level: %d", r.Level),
			Inline: true,
		})
	}
	return single(embed, backButton(IDBackToRanks, "Back")), true
}

// History describes the formation.
func History(now time.Time) Message {
	embed := &discordgo.MessageEmbed{
		Color:       colorBlue,
		Title:       logoEmoji + " History of the Illinois National Guard",
		Description: "The **Illinois National Guard** is one of the oldest and most decorated National Guard formations in the United States.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📅 Founded", Value: "Organised in **1877**, with roots reaching back to the Revolutionary War."},
			{Name: "🎖️ Major Conflicts", Value: strings.Join([]string{
				"• **World War I** (1917-1918)",
				"• **World War II** (1941-1945)",
				"• **Korean War** (1950-1953)",
				"• **Vietnam War** (1955-1975)",
				"• **Operation Desert Storm** (1991)",
				"• **Iraq War** (2003-2011)",
				"• **War in Afghanistan** (2001-2021)",
			}, "\n")},
			{Name: "🏛️ Mission", Value: "The Guard serves a **dual mission**:\n1. Federal support for the US Army\n2. State support during emergencies in Illinois"},
			{Name: "👥 Strength", Value: "More than **13,000** soldiers and airmen serve in the Illinois Army and Air National Guard."},
			{Name: "🔗 More", Value: "[Official Illinois National Guard site](https://il.ng.mil/)"},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footer + " - serving since 1877"},
		Timestamp: timestamp(now),
	}
	return single(embed, backButton(IDBackToMain, "Back to main menu"))
}

// Recruitment explains how to enlist.
func Recruitment(now time.Time) Message {
	embed := &discordgo.MessageEmbed{
		Color:       colorDarkGreen,
		Title:       logoEmoji + " How to Join the Illinois National Guard",
		Description: "Interested in serving with the **Illinois National Guard**? Here is what you need to know:",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ Basic Requirements", Value: strings.Join([]string{
				"• Age: **17-35** (parental consent at 17)",
				"• US citizen or permanent resident",
				"• High school diploma or GED",
				"• Pass the ASVAB",
				"• Meet medical and physical standards",
			}, "\n")},
			{Name: "💰 Benefits", Value: strings.Join([]string{
				"• **Pay** for training and service",
				"• **Tuition assistance**",
				"• **Health insurance**",
				"• **Job training**",
				"• **Retirement plans**",
				"• **Leadership experience**",
			}, "\n")},
			{Name: "📋 Process", Value: strings.Join([]string{
				"1️⃣ Talk to a recruiter",
				"2️⃣ ASVAB (Armed Services Vocational Aptitude Battery)",
				"3️⃣ Medical exam",
				"4️⃣ Oath of enlistment",
				"5️⃣ Basic Combat Training (BCT)",
				"6️⃣ Advanced Individual Training (AIT)",
			}, "\n")},
			{Name: "⏱️ Commitment", Value: "• **One weekend a month**\n• **Two weeks a year** of annual training\n• Optional additional duty and missions"},
			{Name: "📞 Contact", Value: "**Recruiting:**\n[National Guard Recruitment](https://www.nationalguard.com/)\n\n**Illinois National Guard:**\n[il.ng.mil](https://il.ng.mil/)"},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footer + " - your service starts here"},
		Timestamp: timestamp(now),
	}
	return single(embed,
		discordgo.Button{Label: "Apply Online", Style: discordgo.LinkButton, URL: recruitmentURL, Emoji: &discordgo.ComponentEmoji{Name: "📝"}},
		backButton(IDBackToMain, "Back"),
	)
}

// Route returns the message that replaces the current one after a
// component interaction.
func Route(customID string, values []string, now time.Time) (Message, bool) {
	switch customID {
	case IDRanks, IDBackToRanks:
		return RanksMenu(now), true
	case IDHistory:
		return History(now), true
	case IDRecruitment:
		return Recruitment(now), true
	case IDBackToMain:
		return MainMenu(now), true
	case IDRankCategory:
		if len(values) == 0 {
			return Message{}, false
		}
		return RankDetails(ranks.Tier(values[0]), now)
	}
	return Message{}, false
}
