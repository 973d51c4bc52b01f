package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/transport/http/middleware"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/usecase"
)

// QuestionHandler exposes the question lifecycle endpoints.
type QuestionHandler struct {
	questions *usecase.QuestionService
	auth      *middleware.Authenticator
}

// NewQuestionHandler builds a question handler instance.
func NewQuestionHandler(questions *usecase.QuestionService, auth *middleware.Authenticator) *QuestionHandler {
	return &QuestionHandler{questions: questions, auth: auth}
}

// RegisterRoutes attaches question endpoints to the provided group. The group
// is expected to already require authentication.
func (h *QuestionHandler) RegisterRoutes(group *gin.RouterGroup) {
	requireUser := h.auth.RequireRole(domain.RoleUser)
	requireAdmin := h.auth.RequireRole(domain.RoleAdmin)
	requireUserOrAdmin := h.auth.RequireRole(domain.RoleUser, domain.RoleAdmin)

	group.GET("", requireUser, h.List)
	group.GET("/me", requireUser, h.ListMine)
	group.GET("/user/:userId", requireUserOrAdmin, h.ListByUser)
	group.GET("/article/:articleId", requireUser, h.ListByArticle)
	group.GET("/stats", h.Stats)
	group.GET("/:id", requireUser, h.Get)
	group.POST("", requireUser, h.Create)
	group.PATCH("/:id/answer", requireAdmin, h.Answer)
	group.PATCH("/:id", requireUser, h.Update)
	group.DELETE("/:id/answer", requireAdmin, h.DeleteAnswer)
	group.DELETE("/:id", requireUserOrAdmin, h.Delete)
}

func questionErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrQuestionNotFound, Status: http.StatusNotFound, Message: "question not found"},
		{Err: usecase.ErrArticleNotFound, Status: http.StatusNotFound, Message: "article not found or disabled"},
		{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "operation not allowed"},
		{Err: usecase.ErrEmptyQuestion, Status: http.StatusBadRequest, Message: "question text required"},
		{Err: usecase.ErrEmptyAnswer, Status: http.StatusBadRequest, Message: "answer text required"},
		{Err: usecase.ErrMissingArticle, Status: http.StatusBadRequest, Message: "article id required"},
	}
}

// List returns every active question.
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questions.ListQuestions(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to list questions")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayloads(questions))
}

// ListMine returns the caller's own questions.
func (h *QuestionHandler) ListMine(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	questions, err := h.questions.ListByUser(c.Request.Context(), identity, identity.ID)
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to list questions")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayloads(questions))
}

// ListByUser returns another user's questions; admins only, unless self.
func (h *QuestionHandler) ListByUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	questions, err := h.questions.ListByUser(c.Request.Context(), identity, c.Param("userId"))
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to list questions")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayloads(questions))
}

// ListByArticle returns the questions attached to an article.
func (h *QuestionHandler) ListByArticle(c *gin.Context) {
	token := middleware.GetBearerToken(c)

	questions, err := h.questions.ListByArticle(c.Request.Context(), c.Param("articleId"), token)
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to list questions")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayloads(questions))
}

// Stats returns the aggregate statistics snapshot.
func (h *QuestionHandler) Stats(c *gin.Context) {
	stats, err := h.questions.Statistics(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, NewStatsResponse(stats))
}

// Get returns one question by id.
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to load question")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayload(*question))
}

// Create registers a new question against a catalog article.
func (h *QuestionHandler) Create(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req NewQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "articleId and question are required"))
		return
	}

	question, err := h.questions.CreateQuestion(c.Request.Context(), identity, usecase.CreateQuestionInput{
		ArticleID:   req.ArticleID,
		Question:    req.Question,
		BearerToken: middleware.GetBearerToken(c),
	})
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to create question")
		return
	}

	c.JSON(http.StatusCreated, NewQuestionPayload(*question))
}

// Answer records an answer on a question. Admin only.
func (h *QuestionHandler) Answer(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "answer is required"))
		return
	}

	question, err := h.questions.AnswerQuestion(c.Request.Context(), identity, c.Param("id"), req.Answer)
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to answer question")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayload(*question))
}

// Update edits question text. Author only.
func (h *QuestionHandler) Update(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "question is required"))
		return
	}

	question, err := h.questions.UpdateQuestion(c.Request.Context(), identity, c.Param("id"), req.Question)
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to update question")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayload(*question))
}

// DeleteAnswer clears a question's answer. Only the answering admin may do so.
func (h *QuestionHandler) DeleteAnswer(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	question, err := h.questions.DeleteAnswer(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to delete answer")
		return
	}

	c.JSON(http.StatusOK, NewQuestionPayload(*question))
}

// Delete soft-deletes a question. Author or admin.
func (h *QuestionHandler) Delete(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.questions.DeleteQuestion(c.Request.Context(), identity, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, questionErrorCases(), http.StatusInternalServerError, "failed to delete question")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "question deleted"})
}
