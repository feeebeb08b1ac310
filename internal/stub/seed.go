package stub

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// SeedOptions size the demo dataset.
type SeedOptions struct {
	Users    int
	Posts    int
	Channels int
	// Password is assigned to every seeded account so the dataset is
	// usable interactively. Defaults to "password123".
	Password string
}

var defaultTags = []string{
	"Artificial Intelligence", "Databases", "Networking", "Robotics",
	"Web Development", "Operating Systems", "Security", "Compilers",
	"Machine Learning", "Distributed Systems",
}

// Seed fills the stub with a coherent demo dataset: universities with
// careers, the default tag vocabulary, users, tagged posts with comments
// and likes, and a couple of channels with posts.
func (s *Server) Seed(opts SeedOptions) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.Users <= 0 {
		opts.Users = 8
	}
	if opts.Posts <= 0 {
		opts.Posts = 20
	}
	if opts.Channels <= 0 {
		opts.Channels = 2
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}

	unis := []university{
		{Name: gofakeit.City() + " Institute of Technology"},
		{Name: "University of " + gofakeit.City()},
	}
	for i := range unis {
		if err := s.db.Create(&unis[i]).Error; err != nil {
			return err
		}
		careers := []career{
			{Name: "Computer Science", UniversityID: unis[i].UniversityID},
			{Name: "Software Engineering", UniversityID: unis[i].UniversityID},
			{Name: "Information Systems", UniversityID: unis[i].UniversityID},
		}
		if err := s.db.Create(&careers).Error; err != nil {
			return err
		}
	}

	tags := make([]tag, 0, len(defaultTags))
	for _, name := range defaultTags {
		tags = append(tags, tag{Name: name})
	}
	if err := s.db.Create(&tags).Error; err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]user, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		uni := unis[r.Intn(len(unis))]
		users = append(users, user{
			AccountName:  gofakeit.Name(),
			Username:     fmt.Sprintf("%s%d", strings.ToLower(gofakeit.FirstName()), r.Intn(1000)),
			Email:        gofakeit.Email(),
			Password:     string(hashed),
			Img:          fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Role:         "user",
			UniversityID: uni.UniversityID,
			CareerID:     uint(r.Intn(3) + 1),
			CreatedAt:    gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return err
	}

	for i := 0; i < opts.Posts; i++ {
		author := users[r.Intn(len(users))]
		p := post{
			UserID:       author.UserID,
			Content:      gofakeit.Paragraph(1, 3, 8, "\n"),
			UniversityID: author.UniversityID,
			CareerID:     author.CareerID,
			CreatedAt:    gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if err := s.db.Create(&p).Error; err != nil {
			return err
		}

		picked := tags[r.Intn(len(tags))]
		if err := s.db.Model(&p).Association("Tags").Append(&picked); err != nil {
			return err
		}

		for j := 0; j < r.Intn(3); j++ {
			cm := comment{
				PostID:    p.PostID,
				UserID:    users[r.Intn(len(users))].UserID,
				Content:   gofakeit.Sentence(8),
				CreatedAt: p.CreatedAt.Add(time.Duration(j+1) * time.Hour),
			}
			if err := s.db.Create(&cm).Error; err != nil {
				return err
			}
		}
		for _, fan := range pickUsers(r, users, r.Intn(4)) {
			l := like{PostID: p.PostID, UserID: fan.UserID, LikedAt: time.Now()}
			if err := s.db.Create(&l).Error; err != nil {
				return err
			}
		}
	}

	for i := 0; i < opts.Channels; i++ {
		creator := users[r.Intn(len(users))]
		ch := channel{
			Name:         gofakeit.HackerNoun() + " club",
			Description:  gofakeit.Sentence(10),
			IsPrivate:    i%2 == 1,
			CreatedBy:    creator.UserID,
			UniversityID: creator.UniversityID,
			CreatedAt:    time.Now(),
		}
		if err := s.db.Create(&ch).Error; err != nil {
			return err
		}
		if err := s.db.Create(&channelMember{
			ChannelID: ch.ChannelID,
			UserID:    creator.UserID,
			IsAdmin:   true,
			JoinedAt:  time.Now(),
		}).Error; err != nil {
			return err
		}
		for _, member := range pickUsers(r, users, 3) {
			if member.UserID == creator.UserID {
				continue
			}
			if err := s.db.Create(&channelMember{
				ChannelID: ch.ChannelID,
				UserID:    member.UserID,
				JoinedAt:  time.Now(),
			}).Error; err != nil {
				return err
			}
		}
		for j := 0; j < 3; j++ {
			cp := channelPost{
				ChannelID: ch.ChannelID,
				UserID:    creator.UserID,
				Content:   gofakeit.Paragraph(1, 2, 8, "\n"),
				Tags:      strings.ToLower(gofakeit.HackerAdjective()),
				CreatedAt: time.Now().Add(-time.Duration(j) * time.Hour),
			}
			if err := s.db.Create(&cp).Error; err != nil {
				return err
			}
		}
	}

	s.logger.Info("seeded demo data",
		"users", opts.Users, "posts", opts.Posts, "channels", opts.Channels)
	return nil
}

// pickUsers returns up to n distinct users.
func pickUsers(r *rand.Rand, users []user, n int) []user {
	if n > len(users) {
		n = len(users)
	}
	idx := r.Perm(len(users))
	out := make([]user, 0, n)
	for _, i := range idx[:n] {
		out = append(out, users[i])
	}
	return out
}
