package notification_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-ems/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandler_StreamDeliversEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := notification.NewHub(zap.NewNop())
	h := notification.NewHandler(hub, zap.NewNop())

	r := gin.New()
	r.GET("/events/stream", func(c *gin.Context) {
		c.Set("employee_id", "emp-1")
		c.Set("role", "employee")
		h.Stream(c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events/stream", nil)
	assert.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return event, data
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			case line == "" && event != "":
				return event, data
			}
		}
	}

	event, _ := readEvent()
	assert.Equal(t, "connected", event)
	assert.Equal(t, 1, hub.ConnectedCount())

	hub.NotifyEmployee(ctx, "emp-1", notification.EventSalaryUpdated, map[string]string{"final_salary": "2900.00"})

	event, data := readEvent()
	assert.Equal(t, notification.EventSalaryUpdated, event)
	assert.JSONEq(t, `{"final_salary":"2900.00"}`, data)

	cancel()
	assert.Eventually(t, func() bool { return hub.ConnectedCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
