package i18n

import (
	"fmt"
	"html"
	"strings"

	"vacancyhub/internal/models"
)

// Location carries the display names shown on moderation cards.
type Location struct {
	Country string
	Region  string
}

// Post is a rendered channel or queue message.
type Post struct {
	Text     string
	ImageKey string
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

type lineWriter struct {
	kind  models.Kind
	lang  string
	lines []string
}

func (w *lineWriter) field(emoji, key, value string) {
	w.lines = append(w.lines, fmt.Sprintf("%s <b>%s</b>: %s", emoji, kindLabel(w.kind, w.lang, key), escape(value)))
}

func (w *lineWriter) optional(emoji, key, value string) {
	if strings.TrimSpace(value) != "" {
		w.field(emoji, key, value)
	}
}

// RenderChannelPost renders the public post for p in lang.
func RenderChannelPost(lang string, p models.Posting) Post {
	kind := p.Kind()
	w := &lineWriter{kind: kind, lang: lang}
	contact := p.Base().Contact

	switch v := p.(type) {
	case *models.JobVacancy:
		w.lines = append(w.lines, kindLabel(kind, lang, "hashtag")+"\n")
		w.field("👨‍💼", "position_title", v.PositionTitle)
		w.optional("🏛", "organization_name", v.OrganizationName)
		w.field("📍", "address", v.Address)
		w.field("📌", "requirements", v.Requirements)
		w.optional("📑", "duties", v.Duties)
		w.field("⏰", "work_schedule", v.WorkSchedule)
		w.field("💰", "salary", v.Salary)
		w.field("☎️", "contact", contact)
		w.optional("📎", "additional_info", v.AdditionalInfo)
	case *models.Internship:
		w.lines = append(w.lines, kindLabel(kind, lang, "hashtag")+"\n")
		w.field("👨‍💼", "position_title", v.PositionTitle)
		w.optional("🏛", "organization_name", v.OrganizationName)
		w.field("📌", "requirements", v.Requirements)
		w.field("⚙️", "duties", v.Duties)
		w.optional("⚖️", "conditions", v.Conditions)
		w.field("📍", "address", v.Address)
		w.field("💰", "salary", v.Salary)
		w.field("☎️", "contact", contact)
		w.optional("📎", "additional_info", v.AdditionalInfo)
	case *models.OneTimeTask:
		w.lines = append(w.lines, kindLabel(kind, lang, "hashtag")+"\n")
		w.field("👨‍💼", "who_needed", v.WhoNeeded)
		w.field("🏛", "task_description", v.TaskDescription)
		w.field("💰", "salary", v.Salary)
		w.optional("⏳", "deadline", v.Deadline)
		w.field("☎️", "contact", contact)
		w.optional("📍", "address", v.Address)
		w.optional("📎", "additional_info", v.AdditionalInfo)
	case *models.OpportunitiesGrant:
		post := Post{
			Text: fmt.Sprintf("%s\n\n%s: %s", escape(v.Content), kindLabel(kind, lang, "contact"), escape(contact)),
		}
		if v.ImgPath != nil {
			post.ImageKey = *v.ImgPath
		}
		return post
	}

	return Post{Text: strings.Join(w.lines, "\n")}
}

// RenderQueueCard renders the moderation card: a header with the posting id and
// location followed by the channel body.
func RenderQueueCard(lang string, p models.Posting, loc Location) Post {
	header := fmt.Sprintf("# %s ID: %d\n\n", Title(lang), p.Base().ID)

	place := "🌎 " + escape(loc.Country)
	if loc.Region != "" {
		place += " | " + escape(loc.Region)
	}
	place += "\n\n"

	body := RenderChannelPost(lang, p)
	body.Text = header + place + body.Text
	return body
}
