package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/topichub/internal/topics"
)

// httpError maps registry errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, topics.ErrActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, topics.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, topics.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

// topicName returns the decoded :name path parameter. Echo hands back the
// raw segment, so "room%2F1" must become "room/1".
func topicName(c echo.Context) (string, error) {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid topic name").SetInternal(err)
	}
	return name, nil
}

func (s *Server) listTopics(c echo.Context) error {
	names, err := s.registry.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, ListResponse{Topics: names})
}

func (s *Server) getTopic(c echo.Context) error {
	ctx := c.Request().Context()
	name, err := topicName(c)
	if err != nil {
		return err
	}

	exists, err := s.registry.Exists(ctx, name)
	if err != nil {
		return httpError(err)
	}
	subs, err := s.registry.Subscribers(ctx, name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, TopicResponse{
		Name:        name,
		Exists:      exists,
		Active:      exists && len(subs) > 0,
		Subscribers: subs,
	})
}

func (s *Server) createTopic(c echo.Context) error {
	name, err := topicName(c)
	if err != nil {
		return err
	}
	if err := s.registry.Create(c.Request().Context(), name); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteTopic(c echo.Context) error {
	name, err := topicName(c)
	if err != nil {
		return err
	}
	if err := s.registry.Delete(c.Request().Context(), name); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) broadcast(c echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	name, err := topicName(c)
	if err != nil {
		return err
	}
	req.Name = name
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.registry.BroadcastFrom(c.Request().Context(), req.Sender, req.Name, []byte(req.Payload)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Stats())
}
