package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
	"github.com/longkey1/legalc/internal/legal/conversation"
	"github.com/longkey1/legalc/internal/legal/extract"
	"github.com/longkey1/legalc/internal/legal/workflow"
)

// ConversationResponse describes a conversation and its transcript.
type ConversationResponse struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	State     string          `json:"state"`
	Messages  []legal.Message `json:"messages"`
}

// SendMessageRequest is the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ReplyResponse is the outcome of a submission
type ReplyResponse struct {
	Reply     *legal.Message `json:"reply,omitempty"`
	Failed    bool           `json:"failed"`
	Discarded bool           `json:"discarded"`
}

// DocumentRequest carries document text
type DocumentRequest struct {
	Text string `json:"text"`
}

// WorkflowRequest is the body for analysis and risk assessment
type WorkflowRequest struct {
	Document string `json:"document"`
}

// GenerateRequest is the body for document generation
type GenerateRequest struct {
	Type   string            `json:"type" binding:"required"`
	Fields map[string]string `json:"fields"`
}

// ResearchRequest is the body for precedent research
type ResearchRequest struct {
	Query        string `json:"query"`
	Jurisdiction string `json:"jurisdiction"`
	State        string `json:"state"`
	Timeframe    string `json:"timeframe"`
}

// ScoreResponse is a risk score; Value is omitted when it could not be parsed.
type ScoreResponse struct {
	Value  *int   `json:"value,omitempty"`
	Parsed bool   `json:"parsed"`
	Level  string `json:"level"`
}

func (s *Server) conversation(c *gin.Context) (*Conversation, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return nil, false
	}
	conv, ok := s.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return nil, false
	}
	return conv, true
}

func conversationResponse(conv *Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		State:     conv.Controller.State().String(),
		Messages:  conv.Controller.Snapshot(),
	}
}

func replyResponse(reply conversation.Reply) ReplyResponse {
	resp := ReplyResponse{Failed: reply.Failed, Discarded: reply.Discarded}
	if !reply.Discarded {
		msg := reply.Message
		resp.Reply = &msg
	}
	return resp
}

// createConversation starts an empty conversation
func (s *Server) createConversation(c *gin.Context) {
	conv := s.registry.Create()
	s.logger.Debug("conversation created", zap.Stringer("id", conv.ID))
	c.JSON(http.StatusCreated, conversationResponse(conv))
}

// listConversations lists all conversations
func (s *Server) listConversations(c *gin.Context) {
	convs := s.registry.List()
	resp := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, conversationResponse(conv))
	}
	c.JSON(http.StatusOK, resp)
}

// getConversation returns a conversation with its transcript
func (s *Server) getConversation(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conversationResponse(conv))
}

// deleteConversation drops a conversation
func (s *Server) deleteConversation(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}
	s.registry.Delete(conv.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

// sendMessage submits a user message and waits for the reply
func (s *Server) sendMessage(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// The transcript is shared; a client that hangs up must not turn the
	// pending answer into a failure for everyone else.
	reply, err := conv.Controller.Submit(context.WithoutCancel(c.Request.Context()), req.Content)
	if err != nil {
		s.submitError(c, err)
		return
	}
	c.JSON(http.StatusOK, replyResponse(reply))
}

// streamMessage submits a user message and streams the reply as server-sent
// events: "chunk" events carry text, a final "done" event carries the reply.
func (s *Server) streamMessage(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := conv.Controller.SubmitStream(context.WithoutCancel(c.Request.Context()), req.Content, func(chunk string) {
		c.SSEvent("chunk", chunk)
		c.Writer.Flush()
	})
	if err != nil {
		s.submitError(c, err)
		return
	}
	c.SSEvent("done", replyResponse(reply))
	c.Writer.Flush()
}

func (s *Server) submitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is empty"})
	case errors.Is(err, conversation.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A response is still pending"})
	default:
		s.logger.Error("submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
	}
}

// clearMessages empties the transcript
func (s *Server) clearMessages(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}
	conv.Controller.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Chat cleared"})
}

// setDocument attaches document text as chat context
func (s *Server) setDocument(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}

	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	conv.Controller.SetDocument(req.Text)
	c.JSON(http.StatusOK, gin.H{"document_length": len([]rune(conv.Controller.Document()))})
}

// lastReply returns the latest assistant text, the input for speech output
func (s *Server) lastReply(c *gin.Context) {
	conv, ok := s.conversation(c)
	if !ok {
		return
	}
	text, found := conv.Controller.LastReply()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No reply yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// analyze runs a general document analysis
func (s *Server) analyze(c *gin.Context) {
	var req WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := workflow.NewAnalyzer(s.client, s.workflowOptions()...).Analyze(c.Request.Context(), req.Document)
	if err != nil {
		s.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// assessRisk runs a risk assessment and returns the extracted score
func (s *Server) assessRisk(c *gin.Context) {
	var req WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := workflow.NewRiskAssessor(s.client, s.workflowOptions()...).Assess(c.Request.Context(), req.Document)
	if err != nil {
		s.workflowError(c, err)
		return
	}

	score := ScoreResponse{Parsed: res.Score.Parsed, Level: res.Score.Level()}
	if res.Score.Parsed {
		v := res.Score.Value
		score.Value = &v
	}
	c.JSON(http.StatusOK, gin.H{"result": res.Text, "score": score})
}

// generate drafts a legal document
func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	docType, err := workflow.ParseDocumentType(req.Type)
	if err != nil {
		s.workflowError(c, err)
		return
	}

	doc, err := workflow.NewGenerator(s.client, s.workflowOptions()...).Generate(c.Request.Context(), docType, req.Fields)
	if err != nil {
		s.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":     doc.Type,
		"label":    doc.Label,
		"document": doc.Text,
		"filename": doc.Filename(),
	})
}

// research searches for precedents
func (s *Server) research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := workflow.NewResearcher(s.client, s.workflowOptions()...).Research(c.Request.Context(), workflow.ResearchQuery{
		Query:        req.Query,
		Jurisdiction: req.Jurisdiction,
		State:        req.State,
		Timeframe:    req.Timeframe,
	})
	if err != nil {
		s.workflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) workflowError(c *gin.Context, err error) {
	var inputErr *workflow.InputError
	var notice *workflow.Notice
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Title, "description": inputErr.Description, "field": inputErr.Field})
	case errors.As(err, &notice):
		c.JSON(http.StatusBadGateway, gin.H{"error": notice.Title, "description": notice.Description})
	case errors.Is(err, workflow.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Workflow is already running"})
	default:
		s.logger.Error("workflow failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
	}
}

// extractFile returns the text of an uploaded file
func (s *Server) extractFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.extractor.MaxBytes()+1))
	if err != nil {
		s.logger.Error("reading upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing file"})
		return
	}

	res, err := s.extractor.Extract(c.Request.Context(), extract.File{Name: fh.Filename, Data: data})
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large", "description": err.Error()})
		case errors.Is(err, extract.ErrUnsupportedType):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Invalid file type", "description": err.Error()})
		default:
			s.logger.Warn("extraction failed", zap.String("name", fh.Filename), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Error processing file", "description": "There was an error processing your file. Please try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": res.Text, "mime": res.MIME, "kind": res.Kind})
}
