// Package seed fills a development database with reference data, authors,
// channels and postings in every moderation state. Development and tests only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much data a Seeder writes.
type Options struct {
	Users           int
	PostingsPerKind int
	// Seed makes the generated data reproducible; zero picks a time-based seed.
	Seed int64
}

// DefaultOptions is what cmd/seed uses without flags.
var DefaultOptions = Options{Users: 25, PostingsPerKind: 40}

type regionSeed struct {
	name    string
	channel string
}

var geography = []struct {
	name    string
	channel string
	regions []regionSeed
}{
	{"Uzbekistan", "uz_vacancies", []regionSeed{
		{"Karakalpakstan", "qq_jumislar"},
		{"Tashkent", "toshkent_ish"},
		{"Samarkand", ""},
		{"Khorezm", "xorazm_ish"},
	}},
	{"Kazakhstan", "kz_vacancies", []regionSeed{
		{"Almaty", "almaty_jobs"},
		{"Mangystau", ""},
	}},
	{"Kyrgyzstan", "", []regionSeed{
		{"Bishkek", "bishkek_jobs"},
	}},
}

var userLanguages = []string{"kaa", "uzb", "rus", "eng"}

// Seeder writes seed data through a GORM handle.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder. A non-positive Users or negative PostingsPerKind
// falls back to DefaultOptions.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Users <= 0 {
		opts.Users = DefaultOptions.Users
	}
	if opts.PostingsPerKind < 0 {
		opts.PostingsPerKind = DefaultOptions.PostingsPerKind
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// Result summarizes one Run.
type Result struct {
	Countries int
	Regions   int
	Channels  int
	Users     int
	Postings  map[models.Kind]int
}

// Run seeds everything inside one transaction.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{Postings: make(map[models.Kind]int, len(models.Kinds))}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		regions, err := s.seedGeography(tx, res)
		if err != nil {
			return err
		}
		users, err := s.seedUsers(tx, regions)
		if err != nil {
			return err
		}
		res.Users = len(users)
		for _, kind := range models.Kinds {
			n, err := s.seedPostings(tx, kind, users)
			if err != nil {
				return err
			}
			res.Postings[kind] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("countries", res.Countries), slog.Int("regions", res.Regions),
		slog.Int("channels", res.Channels), slog.Int("users", res.Users))
	return res, nil
}

// ClearAll removes every seeded row. Reference tables go last because
// channels and clients point at them.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []string{
		models.OpportunitiesGrant{}.TableName(),
		models.OneTimeTask{}.TableName(),
		models.Internship{}.TableName(),
		models.JobVacancy{}.TableName(),
		models.Channel{}.TableName(),
		models.Client{}.TableName(),
		models.User{}.TableName(),
		models.Region{}.TableName(),
		models.Country{}.TableName(),
	}
	db := s.db.WithContext(ctx)
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "seed tables cleared")
	return nil
}

func (s *Seeder) seedGeography(tx *gorm.DB, res *Result) ([]models.Region, error) {
	var regions []models.Region
	for _, c := range geography {
		country := models.Country{Name: c.name}
		if err := tx.Create(&country).Error; err != nil {
			return nil, fmt.Errorf("create country %s: %w", c.name, err)
		}
		res.Countries++

		if c.channel != "" {
			if err := s.createChannel(tx, country.ID, nil, c.channel); err != nil {
				return nil, err
			}
			res.Channels++
		}

		for _, r := range c.regions {
			region := models.Region{CountryID: country.ID, Name: r.name}
			if err := tx.Create(&region).Error; err != nil {
				return nil, fmt.Errorf("create region %s: %w", r.name, err)
			}
			regions = append(regions, region)
			res.Regions++

			if r.channel != "" {
				id := region.ID
				if err := s.createChannel(tx, country.ID, &id, r.channel); err != nil {
					return nil, err
				}
				res.Channels++
			}
		}
	}
	return regions, nil
}

func (s *Seeder) createChannel(tx *gorm.DB, countryID uint, regionID *uint, handle string) error {
	ch := models.Channel{
		CountryID:    countryID,
		RegionID:     regionID,
		ChannelURL:   handle,
		LanguageCode: models.DefaultChannelLanguage,
	}
	if err := tx.Create(&ch).Error; err != nil {
		return fmt.Errorf("create channel %s: %w", handle, err)
	}
	return nil
}

func (s *Seeder) seedUsers(tx *gorm.DB, regions []models.Region) ([]models.User, error) {
	users := make([]models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		lang := userLanguages[i%len(userLanguages)]
		name := s.faker.Name()
		contact := s.faker.Phone()
		user := models.User{
			TelegramID:   int64(s.faker.Number(100000000, 1999999999)),
			LanguageCode: &lang,
			FullName:     &name,
			Contact:      &contact,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}

		// Every fifth author has an incomplete profile, which submit rejects.
		client := models.Client{UserID: user.ID}
		company := s.faker.Company()
		client.CompanyName = &company
		if len(regions) > 0 && i%5 != 4 {
			region := regions[s.faker.Number(0, len(regions)-1)]
			countryID, regionID := region.CountryID, region.ID
			client.CountryID = &countryID
			client.RegionID = &regionID
		}
		if err := tx.Create(&client).Error; err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
		user.Client = &client
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPostings(tx *gorm.DB, kind models.Kind, users []models.User) (int, error) {
	var authors []models.User
	for _, u := range users {
		if len(u.MissingProfileFields()) == 0 {
			authors = append(authors, u)
		}
	}
	if len(authors) == 0 {
		return 0, nil
	}

	for i := 0; i < s.opts.PostingsPerKind; i++ {
		author := authors[s.faker.Number(0, len(authors)-1)]
		p := s.BuildPosting(kind)
		base := p.Base()
		base.AuthorID = author.ID
		base.CountryID = *author.Client.CountryID
		base.RegionID = author.Client.RegionID
		base.Contact = *author.Contact
		base.CreatedAt = s.faker.DateRange(time.Now().AddDate(0, 0, -60), time.Now())
		s.applyStatus(base)

		if err := tx.Create(p).Error; err != nil {
			return i, fmt.Errorf("create %s: %w", kind.Slug(), err)
		}
	}
	return s.opts.PostingsPerKind, nil
}

// applyStatus spreads postings over the moderation states: half stay NEW,
// the rest split between approved (mostly published) and rejected.
func (s *Seeder) applyStatus(base *models.PostingBase) {
	moderator := int64(s.faker.Number(100000, 999999))
	switch roll := s.faker.Number(1, 10); {
	case roll <= 5:
		base.Status = models.StatusNew
	case roll <= 8:
		base.Status = models.StatusApproved
		base.ModeratorID = &moderator
		if roll <= 7 {
			chat := -1000000000000 - int64(s.faker.Number(1, 999999))
			msg := int64(s.faker.Number(1, 50000))
			base.ChannelChatID = &chat
			base.ChannelMessageID = &msg
		}
	default:
		base.Status = models.StatusRejected
		base.ModeratorID = &moderator
		reason := s.faker.RandomString([]string{
			"Salary is not specified",
			"Duplicate of an earlier posting",
			"Contact details are missing",
			"Content violates channel rules",
		})
		base.RejectReason = &reason
	}
}

// BuildPosting returns an unsaved posting of the given kind with generated
// content. Base fields other than the content are left for the caller.
func (s *Seeder) BuildPosting(kind models.Kind) models.Posting {
	f := s.faker
	switch kind {
	case models.KindJobVacancy:
		return &models.JobVacancy{
			PositionTitle:    f.JobTitle(),
			OrganizationName: f.Company(),
			Address:          f.City() + ", " + f.Street(),
			Requirements:     f.Sentence(12),
			Duties:           f.Sentence(10),
			WorkSchedule:     f.RandomString([]string{"5/2, 9:00-18:00", "6/1, 8:00-17:00", "Remote", "Shifts"}),
			Salary:           salary(f),
			AdditionalInfo:   f.Sentence(6),
		}
	case models.KindInternship:
		return &models.Internship{
			PositionTitle:    f.JobDescriptor() + " " + strings.ToLower(f.JobTitle()) + " intern",
			OrganizationName: f.Company(),
			Requirements:     f.Sentence(10),
			Duties:           f.Sentence(10),
			Conditions:       f.Sentence(8),
			Address:          f.City(),
			Salary:           f.RandomString([]string{"Unpaid", "Stipend", salary(f)}),
		}
	case models.KindOneTimeTask:
		return &models.OneTimeTask{
			WhoNeeded:       f.JobTitle(),
			TaskDescription: f.Paragraph(1, 3, 10, " "),
			Deadline:        f.DateRange(time.Now(), time.Now().AddDate(0, 1, 0)).Format("02.01.2006"),
			Salary:          salary(f),
			Address:         f.City(),
		}
	case models.KindOpportunitiesGrant:
		return &models.OpportunitiesGrant{
			Content: f.Paragraph(2, 3, 12, "\n"),
		}
	}
	return nil
}

func salary(f *gofakeit.Faker) string {
	return fmt.Sprintf("%d %s", f.Number(3, 40)*100, f.RandomString([]string{"USD", "UZS k", "KZT k"}))
}
