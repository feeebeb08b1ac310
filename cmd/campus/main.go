// Command campus is an interactive terminal client for the campus social
// platform: feed browsing, tag search, posting and channel membership from
// one prompt.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"campus/internal/api"
	"campus/internal/cache"
	"campus/internal/config"
	"campus/internal/feed"
	"campus/internal/interactions"
	"campus/internal/models"
	"campus/internal/observability"
	"campus/internal/session"
	"campus/internal/tagsearch"
	"campus/internal/validation"
)

type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	session  *session.Manager
	client   *api.Client
	searcher *tagsearch.Searcher
	feed     *feed.Paginator
	reactor  *interactions.Reactor
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.GlobalLogger

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "campus-client",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TraceExporter != "off",
		Exporter:       cfg.TraceExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	cache.InitRedis(cfg.RedisURL)

	store := session.NewFileStore(cfg.TokenPath)
	sess := session.NewManager(store, logger)

	client, err := api.New(api.Options{
		BaseURL:        cfg.APIBaseURL,
		Tokens:         sess,
		OnUnauthorized: sess.Invalidate,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		session:  sess,
		client:   client,
		searcher: tagsearch.NewSearcher(cache.NewTagLister(client.ListTags)),
		feed:     feed.NewPaginator(client),
		reactor:  interactions.NewReactor(client, client, sess, logger),
	}

	unsubscribe := sess.Subscribe(func(s session.State) {
		fmt.Printf("[session: %s]\n", s)
	})
	defer unsubscribe()

	if state := sess.Load(); state == session.StateAuthenticated {
		fmt.Println("Restored previous session.")
	}

	fmt.Println("campus - type 'help' for commands")
	a.loop(os.Stdin)
}

func (a *app) loop(in *os.File) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(a.cfg.RequestTimeout)*time.Second)
		done := a.dispatch(ctx, fields[0], fields[1:])
		cancel()
		if done {
			return
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) bool {
	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		printHelp()
	case "login":
		err = a.login(ctx, args)
	case "register":
		err = a.register(ctx, args)
	case "logout":
		err = a.session.Logout()
	case "reset":
		err = a.requestReset(ctx, args)
	case "me":
		err = a.whoami(ctx)
	case "feed":
		err = a.refreshFeed(ctx)
	case "more":
		err = a.loadMore(ctx)
	case "like":
		err = a.like(ctx, args)
	case "comment":
		err = a.comment(ctx, args)
	case "post":
		err = a.createPost(ctx, args)
	case "search":
		err = a.search(ctx, args)
	case "tags":
		err = a.tags(ctx, args)
	case "select":
		err = a.selectTag(args)
	case "deselect":
		err = a.deselectTag(args)
	case "selected":
		printTags(a.searcher.Selected())
	case "channels":
		err = a.channels(ctx)
	case "channel":
		err = a.channelPosts(ctx, args)
	case "clike":
		err = a.channelLike(ctx, args)
	case "ccomment":
		err = a.channelComment(ctx, args)
	case "cdelete":
		err = a.channelDelete(ctx, args)
	case "invitations":
		err = a.invitations(ctx)
	case "accept":
		err = a.respondInvitation(ctx, args, true)
	case "reject":
		err = a.respondInvitation(ctx, args, false)
	default:
		fmt.Printf("Unknown command %q, type 'help'\n", cmd)
	}
	if err != nil {
		printErr(err)
	}
	return false
}

func printHelp() {
	fmt.Print(`Commands:
  login <username> <password>     Sign in
  register <user> <email> <pass>  Create an account
  reset <email>                   Request a password reset
  logout                          Sign out
  me                              Show the current account
  feed                            Load the first feed page
  more                            Load the next feed page
  like <post-id>                  Toggle a like
  comment <post-id> <text>        Comment on a post
  post <text>                     Publish with the selected tags
  search <text>                   Search posts (selected tags apply)
  tags <query>                    Search the tag vocabulary
  select <tag-id>                 Add a tag to the selection
  deselect <tag-id>               Remove a tag from the selection
  selected                        Show the selected tags
  channels                        List channels
  channel <id>                    Show a channel's posts
  clike <channel-id> <post-id>    Toggle a like on a channel post
  ccomment <channel-id> <post-id> <text>
                                  Comment on a channel post
  cdelete <post-id>               Delete a channel post
  invitations                     List pending channel invitations
  accept <id> / reject <id>       Answer an invitation
  quit                            Exit
`)
}

func printErr(err error) {
	switch {
	case models.IsUnauthorized(err):
		fmt.Println("Log in to continue (use: login <username> <password>)")
	case models.IsValidation(err):
		fmt.Printf("Invalid input: %v\n", err)
	default:
		fmt.Printf("Error: %v\n", err)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return models.NewValidationError("usage: login <username> <password>")
	}
	result, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.session.Login(result.Token, &result.User); err != nil {
		return err
	}
	fmt.Printf("Welcome back, %s.\n", result.User.Username)

	// Matches the post-login flow: a short pause, then home.
	time.Sleep(time.Duration(a.cfg.LoginRedirect) * time.Second)
	return a.refreshFeed(ctx)
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return models.NewValidationError("usage: register <username> <email> <password>")
	}
	if err := validation.ValidateRegistration(args[0], args[1], args[2], args[2]); err != nil {
		return models.NewValidationError(err.Error())
	}
	err := a.client.Register(ctx, api.RegisterInput{
		Username: args[0],
		Email:    args[1],
		Password: args[2],
	})
	if err != nil {
		return err
	}
	fmt.Println("Account created, you can log in now.")
	return nil
}

func (a *app) requestReset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return models.NewValidationError("usage: reset <email>")
	}
	if err := validation.ValidateEmail(args[0]); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := a.client.RequestPasswordReset(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("If the address exists, a reset link was sent.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	return a.session.RequireAuth(func() error {
		if u, ok := cache.GetUser(ctx, a.currentUserID()); ok {
			printUser(u)
			return nil
		}
		u, err := a.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		cache.SetUser(ctx, u)
		printUser(u)
		return nil
	})
}

func printUser(u *models.User) {
	fmt.Printf("#%d %s", u.UserID, u.Username)
	if u.Email != "" {
		fmt.Printf(" <%s>", u.Email)
	}
	fmt.Println()
}

func (a *app) refreshFeed(ctx context.Context) error {
	if err := a.feed.Refresh(ctx); err != nil {
		return err
	}
	a.printFeed()
	return nil
}

func (a *app) loadMore(ctx context.Context) error {
	added, err := a.feed.LoadMore(ctx)
	if err != nil {
		return err
	}
	if added == 0 && !a.feed.HasMore() {
		fmt.Println("End of feed.")
		return nil
	}
	a.printFeed()
	return nil
}

func (a *app) printFeed() {
	posts := a.feed.Posts()
	if len(posts) == 0 {
		fmt.Println("No posts yet. Be the first: post <text>")
		return
	}
	userID := a.currentUserID()
	for _, p := range posts {
		printPost(p, userID)
	}
	if a.feed.HasMore() {
		fmt.Println("(type 'more' for the next page)")
	}
}

func printPost(p models.Post, userID int) {
	liked := " "
	if userID != 0 && p.LikedBy(userID) {
		liked = "*"
	}
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	tags := ""
	if len(names) > 0 {
		tags = " [" + strings.Join(names, ", ") + "]"
	}
	fmt.Printf("#%d %s%s %s%s (%d likes, %d comments)\n",
		p.PostID, liked, p.User.Username, firstLine(p.Content), tags,
		p.LikeCount(), len(p.Comments))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func (a *app) currentUserID() int {
	if u := a.session.CurrentUser(); u != nil {
		return u.UserID
	}
	return 0
}

func (a *app) findPost(id int) (models.Post, error) {
	for _, p := range a.feed.Posts() {
		if p.PostID == id {
			return p, nil
		}
	}
	return models.Post{}, models.NewNotFoundError("Post", id)
}

func (a *app) like(ctx context.Context, args []string) error {
	id, err := argID(args, "like <post-id>")
	if err != nil {
		return err
	}
	p, err := a.findPost(id)
	if err != nil {
		return err
	}
	result, err := a.reactor.ToggleLike(ctx, &p, a.currentUserID())
	if err != nil {
		return err
	}
	a.feed.Patch(id, func(q *models.Post) { q.Likes = p.Likes })
	if result.Liked {
		fmt.Printf("Liked #%d (%d likes).\n", id, result.Count)
	} else {
		fmt.Printf("Unliked #%d (%d likes).\n", id, result.Count)
	}
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return models.NewValidationError("usage: comment <post-id> <text>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return models.NewValidationError("post id must be a number")
	}
	p, err := a.findPost(id)
	if err != nil {
		return err
	}
	cm, err := a.reactor.SubmitComment(ctx, &p, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.feed.Patch(id, func(q *models.Post) { q.Comments = p.Comments })
	fmt.Printf("Comment #%d added to post #%d.\n", cm.CommentID, id)
	return nil
}

func (a *app) createPost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return models.NewValidationError("usage: post <text>")
	}
	return a.session.RequireAuth(func() error {
		user := a.session.CurrentUser()
		in := api.CreatePostInput{
			Content: strings.Join(args, " "),
			TagIDs:  a.searcher.SelectedIDs(),
		}
		if user != nil {
			in.UniversityID = user.UniversityID
			in.CareerID = user.CareerID
		}
		postID, err := a.client.CreatePost(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Post #%d published.\n", postID)
		return a.refreshFeed(ctx)
	})
}

func (a *app) search(ctx context.Context, args []string) error {
	posts, err := a.client.SearchPosts(ctx, api.SearchPostsInput{
		Query:  strings.Join(args, " "),
		TagIDs: a.searcher.SelectedIDs(),
	})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return nil
	}
	userID := a.currentUserID()
	for _, p := range posts {
		printPost(p, userID)
	}
	return nil
}

func (a *app) tags(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if err := a.searcher.SetQuery(ctx, query); err != nil {
		return err
	}
	options := a.searcher.Options()
	if len(options) == 0 {
		if len(query) > 0 && len(query) < tagsearch.MinQueryLen {
			fmt.Printf("Type at least %d characters.\n", tagsearch.MinQueryLen)
			return nil
		}
		fmt.Println("No matching tags.")
		return nil
	}
	printTags(options)
	return nil
}

func printTags(tags []models.Tag) {
	if len(tags) == 0 {
		fmt.Println("No tags selected.")
		return
	}
	for _, t := range tags {
		fmt.Printf("#%d %s\n", t.TagID, t.Name)
	}
}

func (a *app) selectTag(args []string) error {
	id, err := argID(args, "select <tag-id>")
	if err != nil {
		return err
	}
	for _, t := range a.searcher.Options() {
		if t.TagID == id {
			a.searcher.Select(t)
			fmt.Printf("Selected %s.\n", t.Name)
			return nil
		}
	}
	return models.NewNotFoundError("Tag", id)
}

func (a *app) deselectTag(args []string) error {
	id, err := argID(args, "deselect <tag-id>")
	if err != nil {
		return err
	}
	a.searcher.Deselect(id)
	return nil
}

func (a *app) channels(ctx context.Context) error {
	return a.session.RequireAuth(func() error {
		channels, err := a.client.ListChannels(ctx)
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			fmt.Println("No channels.")
			return nil
		}
		for _, ch := range channels {
			visibility := "public"
			if ch.IsPrivate {
				visibility = "private"
			}
			fmt.Printf("#%d %s (%s, %d members)\n",
				ch.ChannelID, ch.Name, visibility, len(ch.Members))
		}
		return nil
	})
}

func (a *app) channelPosts(ctx context.Context, args []string) error {
	id, err := argID(args, "channel <id>")
	if err != nil {
		return err
	}
	return a.session.RequireAuth(func() error {
		posts, err := a.client.ListChannelPosts(ctx, id)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Println("No posts in this channel.")
			return nil
		}
		for _, p := range posts {
			author := ""
			if p.User != nil {
				author = p.User.Username
			}
			fmt.Printf("#%d %s %s (%d likes, %d comments)\n",
				p.PostID, author, firstLine(p.Content), p.LikeCount(), len(p.Comments))
		}
		return nil
	})
}

func (a *app) findChannelPost(ctx context.Context, channelID, postID int) (models.ChannelPost, error) {
	posts, err := a.client.ListChannelPosts(ctx, channelID)
	if err != nil {
		return models.ChannelPost{}, err
	}
	for _, p := range posts {
		if p.PostID == postID {
			return p, nil
		}
	}
	return models.ChannelPost{}, models.NewNotFoundError("Post", postID)
}

func (a *app) channelLike(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return models.NewValidationError("usage: clike <channel-id> <post-id>")
	}
	channelID, err1 := strconv.Atoi(args[0])
	postID, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return models.NewValidationError("ids must be numbers")
	}
	p, err := a.findChannelPost(ctx, channelID, postID)
	if err != nil {
		return err
	}
	result, err := a.reactor.ToggleChannelLike(ctx, &p, a.currentUserID())
	if err != nil {
		return err
	}
	if result.Liked {
		fmt.Printf("Liked channel post #%d (%d likes).\n", postID, result.Count)
	} else {
		fmt.Printf("Unliked channel post #%d (%d likes).\n", postID, result.Count)
	}
	return nil
}

func (a *app) channelComment(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return models.NewValidationError("usage: ccomment <channel-id> <post-id> <text>")
	}
	channelID, err1 := strconv.Atoi(args[0])
	postID, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return models.NewValidationError("ids must be numbers")
	}
	p, err := a.findChannelPost(ctx, channelID, postID)
	if err != nil {
		return err
	}
	cm, err := a.reactor.SubmitChannelComment(ctx, &p, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("Comment #%d added to channel post #%d.\n", cm.CommentID, postID)
	return nil
}

func (a *app) channelDelete(ctx context.Context, args []string) error {
	id, err := argID(args, "cdelete <post-id>")
	if err != nil {
		return err
	}
	if err := a.reactor.DeleteChannelPost(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Channel post #%d deleted.\n", id)
	return nil
}

func (a *app) invitations(ctx context.Context) error {
	return a.session.RequireAuth(func() error {
		invitations, err := a.client.PendingInvitations(ctx)
		if err != nil {
			return err
		}
		if len(invitations) == 0 {
			fmt.Println("No pending invitations.")
			return nil
		}
		for _, inv := range invitations {
			name := ""
			if inv.Channel != nil {
				name = inv.Channel.Name
			}
			fmt.Printf("#%d %s\n", inv.InvitationID, name)
		}
		return nil
	})
}

func (a *app) respondInvitation(ctx context.Context, args []string, accept bool) error {
	usage := "accept <invitation-id>"
	if !accept {
		usage = "reject <invitation-id>"
	}
	id, err := argID(args, usage)
	if err != nil {
		return err
	}
	return a.session.RequireAuth(func() error {
		if err := a.client.RespondInvitation(ctx, id, accept); err != nil {
			return err
		}
		if accept {
			fmt.Println("Invitation accepted.")
		} else {
			fmt.Println("Invitation rejected.")
		}
		return nil
	})
}

func argID(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, models.NewValidationError("usage: " + usage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("id must be a positive number")
	}
	return id, nil
}
