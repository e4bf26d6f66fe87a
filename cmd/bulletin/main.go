// Command bulletin is a terminal browser for the community board: list and
// read posts, sign in, write posts and comments. All state it keeps is the
// session token, stored in the user config directory.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"bulletin/services/board"
	"bulletin/services/ownership"
	"bulletin/services/pages"
	"bulletin/services/session"
	"bulletin/services/tokenstore"
)

// Default server base URL; override with BULLETIN_API_BASE or --server.
var serverBaseURL = "http://localhost:8080"

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: bulletin [flags] <command> [args]

Commands:
  health                     check backend liveness
  posts                      list posts
  read <id>                  show a post with its comments
  login <email>              sign in (password prompted)
  logout                     sign out
  whoami                     show the signed-in user
  new <title> <content>      create a post
  edit <id> <title> <content> edit a post you own
  rm <id>                    delete a post you own
  comment <postID> <text>    add a comment
  editcomment <id> <text>    edit a comment you own
  rmcomment <id>             delete a comment you own

Flags:`)
	flag.PrintDefaults()
}

func main() {
	serverFlag := flag.String("server", "", "override server base URL")
	size := flag.Int("size", pages.DefaultListSize, "post list window size")
	wait := flag.Bool("wait", false, "wait for the backend to become healthy before running")
	flag.Usage = usage
	flag.Parse()

	if env := os.Getenv("BULLETIN_API_BASE"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	setupLogging()

	dir, err := stateDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	tokens := tokenstore.New(afero.NewOsFs(), dir)
	client := board.NewClient(serverBaseURL, tokens)
	sess := session.NewController(tokens, client)

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if *wait {
		if err := waitHealthy(client); err != nil {
			fmt.Fprintln(os.Stderr, "Error: backend not healthy:", err)
			os.Exit(1)
		}
	}

	app := &app{client: client, session: sess, listSize: *size}
	if err := app.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, board.ErrUnauthenticated) {
			fmt.Fprintln(os.Stderr, "Error: sign in first (bulletin login <email>)")
		} else if errors.Is(err, session.ErrSessionInvalid) {
			fmt.Fprintln(os.Stderr, "Error: session expired, sign in again")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// setupLogging routes slog to a rotating file so command output stays
// clean.
func setupLogging() {
	dir, err := os.UserConfigDir()
	if err != nil {
		return
	}
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "bulletin", "bulletin.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func stateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "bulletin"), nil
}

// waitHealthy polls /health until the backend answers. The retry loop
// lives here on purpose: individual client operations make exactly one
// attempt.
func waitHealthy(client *board.Client) error {
	return retry.Do(
		func() error {
			_, err := client.GetHealth()
			return err
		},
		retry.Attempts(10),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type app struct {
	client   *board.Client
	session  *session.Controller
	listSize int
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "health":
		return a.health()
	case "posts":
		return a.listPosts()
	case "read":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return a.readPost(id)
	case "login":
		if len(args) < 1 {
			return errors.New("usage: login <email>")
		}
		return a.login(args[0])
	case "logout":
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.whoami()
	case "new":
		if len(args) < 2 {
			return errors.New("usage: new <title> <content>")
		}
		return a.newPost(args[0], strings.Join(args[1:], " "))
	case "edit":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("usage: edit <id> <title> <content>")
		}
		return a.editPost(id, args[1], strings.Join(args[2:], " "))
	case "rm":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return a.deletePost(id)
	case "comment":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: comment <postID> <text>")
		}
		return a.addComment(id, strings.Join(args[1:], " "))
	case "editcomment":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: editcomment <id> <text>")
		}
		return a.client.UpdateComment(id, strings.Join(args[1:], " "))
	case "rmcomment":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return a.client.DeleteComment(id)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, errors.New("missing id argument")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return id, nil
}

func (a *app) health() error {
	h, err := a.client.GetHealth()
	if err != nil {
		return err
	}
	fmt.Println("status:", h.Status)
	return nil
}

func (a *app) listPosts() error {
	list := pages.NewPostList(a.client, a.listSize)
	if err := list.Load(); err != nil {
		return err
	}
	items := list.Items()
	if len(items) == 0 {
		fmt.Println("No posts yet.")
		return nil
	}
	for _, p := range items {
		fmt.Printf("%6d  %-40s  %s\n", p.ID, p.Title, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) readPost(id int64) error {
	page := pages.NewPostPage(a.client, a.session, id)
	if err := page.Load(); err != nil {
		return err
	}

	post := page.Post()
	author := "anonymous"
	if post.AuthorNickname != nil {
		author = *post.AuthorNickname
	}
	fmt.Printf("#%d %s\n", post.ID, post.Title)
	fmt.Printf("by %s · %s", author, post.CreatedAt.Local().Format("2006-01-02 15:04"))
	if post.Edited() {
		fmt.Printf(" · edited %s", post.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
	if page.CanEditPost() {
		fmt.Printf("(yours — edit %d / rm %d)\n", post.ID, post.ID)
	}
	fmt.Println()
	fmt.Println(post.Content)

	comments := page.Comments()
	fmt.Printf("\n--- %d comment(s) ---\n", len(comments))
	for _, c := range comments {
		marker := ""
		if page.CanEditComment(c) {
			marker = " *"
		}
		fmt.Printf("[%d] %s · %s%s\n    %s\n", c.ID, c.AuthorNickname, c.CreatedAt.Local().Format("2006-01-02 15:04"), marker, c.Content)
	}
	return nil
}

func (a *app) login(email string) error {
	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	if err := a.session.Login(email, password); err != nil {
		return err
	}
	if viewer := a.session.Resolve(); viewer != nil {
		fmt.Printf("Signed in as %s (#%d)\n", viewer.Nickname, viewer.ID)
	} else {
		fmt.Println("Signed in.")
	}
	return nil
}

func (a *app) whoami() error {
	viewer := a.session.Resolve()
	if viewer == nil {
		// The decoded claim is worth showing as a hint even when the
		// server says no: it tells stale session from never signed in.
		if id, ok := a.session.DecodedUserID(); ok {
			fmt.Printf("Not signed in (stored token claims user #%d, but the server does not accept it)\n", id)
		} else {
			fmt.Println("Not signed in.")
		}
		return nil
	}
	fmt.Printf("%s (#%d)\n", viewer.Nickname, viewer.ID)
	return nil
}

func (a *app) newPost(title, content string) error {
	list := pages.NewPostList(a.client, a.listSize)
	id, err := list.CreatePost(board.PostInput{Title: title, Content: content})
	if err != nil {
		return err
	}
	fmt.Printf("Created post #%d\n", id)
	return nil
}

func (a *app) editPost(id int64, title, content string) error {
	if err := a.guardOwnership(id); err != nil {
		return err
	}
	page := pages.NewPostPage(a.client, a.session, id)
	if err := page.Load(); err != nil {
		return err
	}
	if err := page.UpdatePost(board.PostInput{Title: title, Content: content}); err != nil {
		return err
	}
	fmt.Printf("Updated post #%d\n", id)
	return nil
}

func (a *app) deletePost(id int64) error {
	if err := a.guardOwnership(id); err != nil {
		return err
	}
	page := pages.NewPostPage(a.client, a.session, id)
	if err := page.DeletePost(); err != nil {
		return err
	}
	fmt.Printf("Deleted post #%d\n", id)
	return nil
}

// guardOwnership is a courtesy check so the user gets a clear message
// before the server's own 403 would. The backend remains the authority.
func (a *app) guardOwnership(postID int64) error {
	viewer := a.session.Resolve()
	post, err := a.client.GetPost(postID)
	if err != nil {
		return err
	}
	if !ownership.CanMutate(viewer, post.AuthorID) {
		return fmt.Errorf("post #%d is not yours", postID)
	}
	return nil
}

func (a *app) addComment(postID int64, text string) error {
	page := pages.NewPostPage(a.client, a.session, postID)
	if err := page.Load(); err != nil {
		return err
	}
	if err := page.AddComment(text); err != nil {
		return err
	}
	fmt.Printf("Commented on post #%d (%d comment(s) now)\n", postID, len(page.Comments()))
	return nil
}
