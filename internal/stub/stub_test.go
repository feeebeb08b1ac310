package stub

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"campus/internal/api"
	"campus/internal/feed"
	"campus/internal/interactions"
	"campus/internal/models"
	"campus/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer gives every test its own named in-memory database so the
// shared-cache DSN does not leak rows between tests.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := New(Options{DSN: dsn})
	require.NoError(t, err)
	return s
}

// newTestClient wires the real API client straight into the stub's fiber
// app. tokens may be nil for anonymous clients.
func newTestClient(t *testing.T, s *Server, tokens api.TokenSource) *api.Client {
	t.Helper()
	client, err := api.New(api.Options{
		BaseURL:    "http://stub.internal",
		HTTPClient: s.Client(),
		Tokens:     tokens,
	})
	require.NoError(t, err)
	return client
}

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

// signUp registers and logs a user in, returning an authenticated client.
func signUp(t *testing.T, s *Server, username string) (*api.Client, models.User) {
	t.Helper()
	anon := newTestClient(t, s, nil)
	err := anon.Register(context.Background(), api.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	result, err := anon.Login(context.Background(), username, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	return newTestClient(t, s, staticTokens(result.Token)), result.User
}

func seedTags(t *testing.T, s *Server, names ...string) []models.Tag {
	t.Helper()
	out := make([]models.Tag, 0, len(names))
	for _, name := range names {
		row := tag{Name: name}
		require.NoError(t, s.db.Create(&row).Error)
		out = append(out, models.Tag{TagID: int(row.TagID), Name: row.Name})
	}
	return out
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client := newTestClient(t, s, nil)

	tests := []struct {
		name  string
		input api.RegisterInput
	}{
		{
			name:  "missing fields",
			input: api.RegisterInput{Username: "ada"},
		},
		{
			name: "short password",
			input: api.RegisterInput{
				Username: "ada", Email: "ada@example.com", Password: "short",
			},
		},
		{
			name: "bad email",
			input: api.RegisterInput{
				Username: "ada", Email: "not-an-email", Password: "password123",
			},
		},
	}
	for _, tt := range tests {
		err := client.Register(context.Background(), tt.input)
		assert.True(t, models.IsValidation(err), "%s: got %v", tt.name, err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client := newTestClient(t, s, nil)

	in := api.RegisterInput{
		Username: "ada", Email: "ada@example.com", Password: "password123",
	}
	require.NoError(t, client.Register(context.Background(), in))

	err := client.Register(context.Background(), in)
	assert.True(t, models.IsValidation(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	signUp(t, s, "ada")
	client := newTestClient(t, s, nil)

	_, err := client.Login(context.Background(), "ada", "wrong-password")
	assert.True(t, models.IsUnauthorized(err))

	_, err = client.Login(context.Background(), "nobody", "password123")
	assert.True(t, models.IsUnauthorized(err))
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for name, tokens := range map[string]api.TokenSource{
		"no token":      nil,
		"garbage token": staticTokens("not-a-jwt"),
	} {
		client := newTestClient(t, s, tokens)
		_, err := client.CurrentUser(context.Background())
		assert.True(t, models.IsUnauthorized(err), name)
	}
}

func TestCurrentUserIncludesEmail(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, registered := signUp(t, s, "ada")

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, user.UserID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestFeedPagination(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, _ := signUp(t, s, "ada")

	for i := 1; i <= 7; i++ {
		_, err := client.CreatePost(context.Background(), api.CreatePostInput{
			Content: fmt.Sprintf("post number %d", i),
		})
		require.NoError(t, err)
		// created_at drives feed ordering; keep the timestamps distinct.
		time.Sleep(2 * time.Millisecond)
	}

	page1, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page1, feedPageSize)
	assert.Equal(t, "post number 7", page1[0].Content, "newest first")

	page2, err := client.ListPosts(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, page2, feedPageSize)

	page3, err := client.ListPosts(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	page4, err := client.ListPosts(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, page4)
}

func TestFeedPaginatorAgainstStub(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, _ := signUp(t, s, "ada")

	for i := 1; i <= 5; i++ {
		_, err := client.CreatePost(context.Background(), api.CreatePostInput{
			Content: fmt.Sprintf("post number %d", i),
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	p := feed.NewPaginator(client)
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, feedPageSize, p.Len())

	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 5, p.Len())

	added, err = p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.False(t, p.HasMore())
}

func TestTagVocabularyAndSearch(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	seeded := seedTags(t, s, "Databases", "Networking", "Robotics")
	client := newTestClient(t, s, nil)

	all, err := client.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := client.ListTags(context.Background(), "net")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, seeded[1].Name, filtered[0].Name)
}

func TestCreatePostWithTagsAndFiles(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	tags := seedTags(t, s, "Databases", "Networking")
	client, author := signUp(t, s, "ada")

	postID, err := client.CreatePost(context.Background(), api.CreatePostInput{
		Content: "indexes explained",
		TagIDs:  []int{tags[0].TagID},
		Files: []api.FileUpload{{
			Name:        "diagram.png",
			ContentType: "image/png",
			Reader:      strings.NewReader("png-bytes"),
		}},
	})
	require.NoError(t, err)
	require.Positive(t, postID)

	posts, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	got := posts[0]
	assert.Equal(t, author.UserID, got.UserID)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Databases", got.Tags[0].Name)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "image", got.Files[0].FileType)

	// Tag filter in search finds it; the other tag does not.
	found, err := client.SearchPosts(context.Background(), api.SearchPostsInput{
		TagIDs: []int{tags[0].TagID},
	})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	missed, err := client.SearchPosts(context.Background(), api.SearchPostsInput{
		TagIDs: []int{tags[1].TagID},
	})
	require.NoError(t, err)
	assert.Empty(t, missed)
}

func TestSearchByContent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, _ := signUp(t, s, "ada")

	for _, content := range []string{"exam schedule update", "lost keys in library"} {
		_, err := client.CreatePost(context.Background(), api.CreatePostInput{Content: content})
		require.NoError(t, err)
	}

	found, err := client.SearchPosts(context.Background(), api.SearchPostsInput{Query: "exam"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Content, "exam")
}

func TestLikeToggleRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, user := signUp(t, s, "ada")

	postID, err := client.CreatePost(context.Background(), api.CreatePostInput{Content: "like me"})
	require.NoError(t, err)

	require.NoError(t, client.ToggleLike(context.Background(), postID))
	posts, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, posts[0].LikedBy(user.UserID))
	assert.Equal(t, 1, posts[0].LikeCount())

	require.NoError(t, client.ToggleLike(context.Background(), postID))
	posts, err = client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, posts[0].LikedBy(user.UserID))
	assert.Zero(t, posts[0].LikeCount())
}

func TestLikeRequiresAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	author, _ := signUp(t, s, "ada")
	postID, err := author.CreatePost(context.Background(), api.CreatePostInput{Content: "hello"})
	require.NoError(t, err)

	anon := newTestClient(t, s, nil)
	err = anon.ToggleLike(context.Background(), postID)
	assert.True(t, models.IsUnauthorized(err))
}

func TestCommentFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, user := signUp(t, s, "ada")

	postID, err := client.CreatePost(context.Background(), api.CreatePostInput{Content: "thoughts?"})
	require.NoError(t, err)

	_, err = client.AddComment(context.Background(), postID, "   ")
	assert.True(t, models.IsValidation(err), "blank comments are rejected")

	created, err := client.AddComment(context.Background(), postID, "great point")
	require.NoError(t, err)
	assert.Equal(t, "great point", created.Content)
	assert.Equal(t, user.Username, created.User.Username, "comment carries its author")

	posts, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
}

func TestReactorAgainstStub(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, user := signUp(t, s, "ada")

	postID, err := client.CreatePost(context.Background(), api.CreatePostInput{Content: "react to me"})
	require.NoError(t, err)

	sess := session.NewManager(&session.MemoryStore{}, nil)
	sess.Load()
	require.NoError(t, sess.Login("ignored-by-static-client", &user))

	r := interactions.NewReactor(client, client, sess, nil)

	posts, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	post := posts[0]

	result, err := r.ToggleLike(context.Background(), &post, user.UserID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.Count)

	// The server agrees with the locally patched copy.
	refetched, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, refetched[0].LikeCount())

	_, err = r.SubmitComment(context.Background(), &post, "confirmed")
	require.NoError(t, err)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, postID, post.Comments[0].PostID)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	client, _ := signUp(t, s, "ada")

	updated, err := client.UpdateProfile(context.Background(), api.UpdateProfileInput{
		Username: "ada_lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace", updated.Username)

	err = client.ChangePassword(context.Background(), "wrong-password", "newpassword1")
	assert.True(t, models.IsValidation(err))

	require.NoError(t, client.ChangePassword(context.Background(), "password123", "newpassword1"))

	anon := newTestClient(t, s, nil)
	_, err = anon.Login(context.Background(), "ada_lovelace", "newpassword1")
	require.NoError(t, err)
}

func TestUserProfileCounts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ada, adaUser := signUp(t, s, "ada")
	bob, _ := signUp(t, s, "bob")

	postID, err := ada.CreatePost(context.Background(), api.CreatePostInput{Content: "popular"})
	require.NoError(t, err)
	require.NoError(t, bob.ToggleLike(context.Background(), postID))

	profile, err := bob.UserProfile(context.Background(), adaUser.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Posts)
	assert.Equal(t, 1, profile.Likes)
	assert.Empty(t, profile.Email, "profiles of other users hide the email")
}

func TestChannelMembershipAndPosts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	member, memberUser := signUp(t, s, "ada")
	outsider, _ := signUp(t, s, "bob")

	ch := channel{Name: "databases club", IsPrivate: true, CreatedBy: uint(memberUser.UserID), CreatedAt: time.Now()}
	require.NoError(t, s.db.Create(&ch).Error)
	require.NoError(t, s.db.Create(&channelMember{
		ChannelID: ch.ChannelID,
		UserID:    uint(memberUser.UserID),
		IsAdmin:   true,
		JoinedAt:  time.Now(),
	}).Error)

	// Private channels are invisible to non-members.
	channels, err := outsider.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, channels)

	_, err = outsider.ListChannelPosts(context.Background(), int(ch.ChannelID))
	require.Error(t, err)

	channels, err = member.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "databases club", channels[0].Name)

	created, err := member.CreateChannelPost(context.Background(), int(ch.ChannelID),
		api.CreateChannelPostInput{Content: "welcome", Tags: []string{"intro"}})
	require.NoError(t, err)
	assert.Equal(t, memberUser.UserID, created.UserID)

	posts, err := member.ListChannelPosts(context.Background(), int(ch.ChannelID))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"intro"}, posts[0].Tags)
}

func TestChannelLikeStatusCodes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	member, memberUser := signUp(t, s, "ada")

	ch := channel{Name: "robotics club", CreatedBy: uint(memberUser.UserID), CreatedAt: time.Now()}
	require.NoError(t, s.db.Create(&ch).Error)
	require.NoError(t, s.db.Create(&channelMember{
		ChannelID: ch.ChannelID,
		UserID:    uint(memberUser.UserID),
		JoinedAt:  time.Now(),
	}).Error)

	created, err := member.CreateChannelPost(context.Background(), int(ch.ChannelID),
		api.CreateChannelPostInput{Content: "first"})
	require.NoError(t, err)

	added, like, err := member.ToggleChannelLike(context.Background(), created.PostID)
	require.NoError(t, err)
	assert.True(t, added)
	require.NotNil(t, like)
	assert.Equal(t, memberUser.UserID, like.UserID)

	added, _, err = member.ToggleChannelLike(context.Background(), created.PostID)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestChannelPostDeletionRights(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin, adminUser := signUp(t, s, "ada")
	poster, posterUser := signUp(t, s, "bob")

	ch := channel{Name: "networking club", CreatedBy: uint(adminUser.UserID), CreatedAt: time.Now()}
	require.NoError(t, s.db.Create(&ch).Error)
	for _, m := range []channelMember{
		{ChannelID: ch.ChannelID, UserID: uint(adminUser.UserID), IsAdmin: true, JoinedAt: time.Now()},
		{ChannelID: ch.ChannelID, UserID: uint(posterUser.UserID), JoinedAt: time.Now()},
	} {
		require.NoError(t, s.db.Create(&m).Error)
	}

	created, err := poster.CreateChannelPost(context.Background(), int(ch.ChannelID),
		api.CreateChannelPostInput{Content: "to be deleted"})
	require.NoError(t, err)

	// A plain member cannot delete someone else's post.
	other, err := admin.CreateChannelPost(context.Background(), int(ch.ChannelID),
		api.CreateChannelPostInput{Content: "admin post"})
	require.NoError(t, err)
	err = poster.DeleteChannelPost(context.Background(), other.PostID)
	require.Error(t, err)

	// The author and the admin both can delete.
	require.NoError(t, poster.DeleteChannelPost(context.Background(), created.PostID))
	require.NoError(t, admin.DeleteChannelPost(context.Background(), other.PostID))
}

func TestInvitationLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	owner, ownerUser := signUp(t, s, "ada")
	invitee, inviteeUser := signUp(t, s, "bob")

	ch := channel{Name: "compilers club", IsPrivate: true, CreatedBy: uint(ownerUser.UserID), CreatedAt: time.Now()}
	require.NoError(t, s.db.Create(&ch).Error)
	require.NoError(t, s.db.Create(&channelMember{
		ChannelID: ch.ChannelID,
		UserID:    uint(ownerUser.UserID),
		IsAdmin:   true,
		JoinedAt:  time.Now(),
	}).Error)

	inv := channelInvitation{
		ChannelID:   ch.ChannelID,
		InvitedBy:   uint(ownerUser.UserID),
		InvitedUser: uint(inviteeUser.UserID),
		Status:      models.InvitationPending,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.db.Create(&inv).Error)

	pending, err := invitee.PendingInvitations(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Channel)
	assert.Equal(t, "compilers club", pending[0].Channel.Name)

	// Only the invited user may answer.
	err = owner.RespondInvitation(context.Background(), int(inv.InvitationID), true)
	require.Error(t, err)

	require.NoError(t, invitee.RespondInvitation(context.Background(), int(inv.InvitationID), true))

	// Accepting grants membership and consumes the invitation.
	channels, err := invitee.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Len(t, channels, 1)

	pending, err = invitee.PendingInvitations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = invitee.RespondInvitation(context.Background(), int(inv.InvitationID), false)
	assert.True(t, models.IsValidation(err), "a handled invitation cannot be answered again")
}

func TestSeedProducesCoherentData(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	require.NoError(t, s.Seed(SeedOptions{Users: 4, Posts: 6, Channels: 1}))

	client := newTestClient(t, s, nil)

	tags, err := client.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, tags)

	posts, err := client.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, posts, feedPageSize)
	for _, p := range posts {
		assert.NotEmpty(t, p.Content)
		assert.NotEmpty(t, p.User.Username)
	}

	var userCount int64
	require.NoError(t, s.db.Model(&user{}).Count(&userCount).Error)
	assert.EqualValues(t, 4, userCount)
}
