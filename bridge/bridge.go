// Package bridge exposes the sync core over a local HTTP surface so a UI
// harness can drive it during development. It carries no business logic of
// its own; every handler delegates to the owning component.
package bridge

import (
	"io"
	"net/http"

	"github.com/framez-app/framez-go/livequery"
	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/mutate"
	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/publish"
	"github.com/framez-app/framez-go/session"
	"github.com/framez-app/framez-go/theme"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wires the core components behind HTTP handlers.
type Server struct {
	Session  *session.Manager
	Store    provider.DocStore
	Engine   *mutate.Engine
	Pipeline *publish.Pipeline
	Theme    *theme.Store
}

// NewRouter builds the gin router with CORS enabled for the local harness.
func (s *Server) NewRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/session", s.getSession)
	router.POST("/session/signup", s.signUp)
	router.POST("/session/signin", s.signIn)
	router.POST("/session/signout", s.signOut)

	router.GET("/feed", s.getFeed)
	router.GET("/search", s.searchUsers)
	router.GET("/users/:id/profile", s.getProfile)
	router.GET("/users/:id/posts", s.getAuthorPosts)

	router.POST("/posts", s.createPost)
	router.POST("/posts/:id/like", s.toggleLike)
	router.POST("/users/:id/follow", s.toggleFollow)

	router.GET("/theme", s.getTheme)
	router.PUT("/theme", s.setTheme)

	router.GET("/ws/feed", s.feedSocket)

	return router
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":      s.Session.CurrentIdentity(),
		"resolving": s.Session.Resolving(),
	})
}

type credentialsRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

func (s *Server) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Session.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": s.Session.CurrentIdentity()})
}

func (s *Server) signIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Session.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": s.Session.CurrentIdentity()})
}

func (s *Server) signOut(c *gin.Context) {
	if err := s.Session.SignOut(c.Request.Context()); err != nil {
		// Local session is already cleared; surface as non-blocking notice.
		c.JSON(http.StatusOK, gin.H{"warning": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getFeed(c *gin.Context) {
	snapshot, err := s.Store.Query(c.Request.Context(), livequery.FeedQuery())
	if err != nil {
		// No data yet, not a fatal condition.
		c.JSON(http.StatusOK, gin.H{"posts": []*model.Post{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": decodePosts(snapshot)})
}

func (s *Server) getAuthorPosts(c *gin.Context) {
	snapshot, err := s.Store.Query(c.Request.Context(), livequery.AuthorPostsQuery(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"posts": []*model.Post{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": decodePosts(snapshot)})
}

func (s *Server) searchUsers(c *gin.Context) {
	snapshot, err := s.Store.Query(c.Request.Context(), livequery.UserIndexQuery())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"users": []*model.User{}})
		return
	}
	users := make([]*model.User, 0, len(snapshot))
	for _, doc := range snapshot {
		users = append(users, model.UserFromDocument(doc))
	}

	selfId := ""
	if self := s.Session.CurrentIdentity(); self != nil {
		selfId = self.Id
	}
	c.JSON(http.StatusOK, gin.H{"users": livequery.FilterUsers(users, c.Query("q"), selfId)})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.Session.LoadProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) createPost(c *gin.Context) {
	author := s.Session.CurrentIdentity()

	var image *publish.LocalImage
	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image upload"})
			return
		}
		image = &publish.LocalImage{
			Data:        data,
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		}
	}

	post, err := s.Pipeline.Publish(c.Request.Context(), author, c.PostForm("text"), image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) toggleLike(c *gin.Context) {
	user := s.Session.CurrentIdentity()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	doc, err := s.Store.Get(c.Request.Context(), provider.CollectionPosts, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	res, err := s.Engine.ToggleLike(c.Request.Context(), model.PostFromDocument(doc), user.Id)
	if err == mutate.ErrInFlight {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     res.State.String(),
		"liked":     res.Liked,
		"likeCount": res.LikeCount,
	})
}

func (s *Server) toggleFollow(c *gin.Context) {
	user := s.Session.CurrentIdentity()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	res, err := s.Engine.ToggleFollow(c.Request.Context(), user.Id, c.Param("id"), nil)
	if err == mutate.ErrInFlight {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     res.State.String(),
		"following": res.Following,
	})
}

func (s *Server) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":            s.Theme.Mode(),
		"effectiveIsDark": s.Theme.EffectiveIsDark(),
	})
}

func (s *Server) setTheme(c *gin.Context) {
	var req struct {
		Mode model.ThemeMode `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Mode.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown theme mode"})
		return
	}
	s.Theme.SetMode(req.Mode)
	c.JSON(http.StatusOK, gin.H{
		"mode":            s.Theme.Mode(),
		"effectiveIsDark": s.Theme.EffectiveIsDark(),
	})
}

func decodePosts(snapshot provider.Snapshot) []*model.Post {
	posts := make([]*model.Post, 0, len(snapshot))
	for _, doc := range snapshot {
		posts = append(posts, model.PostFromDocument(doc))
	}
	return posts
}
