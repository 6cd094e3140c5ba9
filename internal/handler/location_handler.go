package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/application"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/autocomplete"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/routeview"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/response"
)

// LocationHandler serves the search and confirm screens: place lookup, the
// autocomplete and map sockets, and ride quotes.
type LocationHandler struct {
	locations     *application.LocationService
	delay         time.Duration
	clock         autocomplete.Clock
	mapboxWarning string
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// NewLocationHandler creates a new LocationHandler. mapboxWarning is sent to
// every search socket on connect when non-empty.
func NewLocationHandler(
	locations *application.LocationService,
	delay time.Duration,
	mapboxWarning string,
	m *metrics.Collector,
	logger *zap.Logger,
) *LocationHandler {
	return &LocationHandler{
		locations:     locations,
		delay:         delay,
		clock:         autocomplete.SystemClock,
		mapboxWarning: mapboxWarning,
		metrics:       m,
		logger:        logger,
	}
}

// RegisterRoutes registers the location routes. None of them need a session.
func (h *LocationHandler) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("/api/v1")
	{
		api.GET("/places", h.SearchPlaces)
		api.GET("/confirm", h.Confirm)
		api.GET("/quotes", h.Quotes)
		api.GET("/tiers", h.Tiers)
	}

	ws := r.Group("/ws")
	{
		ws.GET("/search", h.SearchSocket)
		ws.GET("/map", h.MapSocket)
	}
}

// SearchPlaces handles GET /api/v1/places?q=.
func (h *LocationHandler) SearchPlaces(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Success(c, []place.Candidate{})
		return
	}

	result, err := h.locations.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Confirm handles GET /api/v1/confirm?pickup=&dropoff=.
func (h *LocationHandler) Confirm(c *gin.Context) {
	result, err := h.locations.Confirm(c.Request.Context(), c.Query("pickup"), c.Query("dropoff"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Quotes handles GET /api/v1/quotes?pickup=lon,lat&dropoff=lon,lat.
func (h *LocationHandler) Quotes(c *gin.Context) {
	pickup, err := place.ParseCoordinate(c.Query("pickup"))
	if err != nil {
		response.BadRequest(c, "invalid pickup: "+err.Error())
		return
	}
	dropoff, err := place.ParseCoordinate(c.Query("dropoff"))
	if err != nil {
		response.BadRequest(c, "invalid dropoff: "+err.Error())
		return
	}

	result, err := h.locations.Quotes(c.Request.Context(), pickup, dropoff)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Tiers handles GET /api/v1/tiers.
func (h *LocationHandler) Tiers(c *gin.Context) {
	response.Success(c, h.locations.Catalog())
}

type inputData struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type selectData struct {
	Field string `json:"field"`
	Index int    `json:"index"`
}

type navigateData struct {
	Path string `json:"path"`
}

// SearchSocket handles GET /ws/search. Each connection owns a pickup/dropoff
// autocomplete form.
func (h *LocationHandler) SearchSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("search socket upgrade failed", zap.Error(err))
		return
	}
	sess := newWSSession(conn, "search", h.logger, h.metrics)
	defer sess.close()

	form := autocomplete.NewForm(h.locations, autocomplete.Options{
		Delay:    h.delay,
		Clock:    h.clock,
		Logger:   h.logger,
		Metrics:  h.metrics,
		Listener: func(st autocomplete.State) { sess.send(msgState, st) },
	})
	defer form.Close()

	if h.mapboxWarning != "" {
		sess.sendError(h.mapboxWarning)
	}
	if q := c.Query("pickup"); q != "" {
		form.Pickup.SetText(q)
	}
	if q := c.Query("dropoff"); q != "" {
		form.Dropoff.SetText(q)
	}

	sess.readLoop(func(msg wsMessage) {
		switch msg.Type {
		case "input":
			var in inputData
			if !decodeData(msg, &in) {
				sess.sendError("malformed input")
				return
			}
			field := form.Field(in.Field)
			if field == nil {
				sess.sendError("unknown field: " + in.Field)
				return
			}
			field.SetText(in.Text)

		case "select":
			var sel selectData
			if !decodeData(msg, &sel) {
				sess.sendError("malformed selection")
				return
			}
			field := form.Field(sel.Field)
			if field == nil {
				sess.sendError("unknown field: " + sel.Field)
				return
			}
			if _, err := field.Select(sel.Index); err != nil {
				sess.sendError(err.Error())
			}

		case "confirm":
			if !form.Complete() {
				sess.sendError("Enter a pickup and a dropoff location")
				return
			}
			sess.send(msgNavigate, navigateData{Path: "/confirm?" + form.ConfirmQuery().Encode()})

		default:
			sess.sendError("unknown message type: " + msg.Type)
		}
	})
}

type locationsData struct {
	Pickup  *place.Coordinate `json:"pickup"`
	Dropoff *place.Coordinate `json:"dropoff"`
}

func (l locationsData) valid() bool {
	return (l.Pickup == nil || l.Pickup.Valid()) && (l.Dropoff == nil || l.Dropoff.Valid())
}

type initData struct {
	Camera routeview.Camera `json:"camera"`
}

// MapSocket handles GET /ws/map. The connection is one mounted map: the
// browser reports ready and location changes, the server streams paint
// commands and the ride quotes for each applied route.
func (h *LocationHandler) MapSocket(c *gin.Context) {
	initial, err := locationsFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("map socket upgrade failed", zap.Error(err))
		return
	}
	sess := newWSSession(conn, "map", h.logger, h.metrics)
	defer sess.close()

	surface := routeview.NewCommandSurface(func(cmd routeview.Command) error {
		sess.send(msgCommand, cmd)
		return nil
	}, h.logger)
	view := routeview.New(surface, h.locations.Router(), routeview.Options{
		Logger:  h.logger,
		Metrics: h.metrics,
		OnRoute: func(r *place.Route) {
			sess.send(msgQuotes, application.QuotesDTO{
				DurationSeconds: r.DurationMinutes() * 60,
				Quotes:          h.locations.QuotesFor(r),
			})
		},
	})
	defer view.Close()

	sess.send(msgInit, initData{Camera: routeview.DefaultCamera})
	view.SetLocations(initial.Pickup, initial.Dropoff)

	sess.readLoop(func(msg wsMessage) {
		switch msg.Type {
		case "ready":
			view.Ready()

		case "locations":
			var loc locationsData
			if !decodeData(msg, &loc) || !loc.valid() {
				sess.sendError("malformed locations")
				return
			}
			view.SetLocations(unsetIfSentinel(loc.Pickup), unsetIfSentinel(loc.Dropoff))

		case "device_location":
			var at place.Coordinate
			if !decodeData(msg, &at) || !at.Valid() {
				sess.sendError("malformed device location")
				return
			}
			view.SetDeviceLocation(at)

		default:
			sess.sendError("unknown message type: " + msg.Type)
		}
	})
}

// locationsFromQuery reads pickup/dropoff as "lon,lat" pairs, where "0,0" or
// an empty value means unset.
func locationsFromQuery(c *gin.Context) (locationsData, error) {
	pickup, err := place.ParseCoordinate(c.Query("pickup"))
	if err != nil {
		return locationsData{}, err
	}
	dropoff, err := place.ParseCoordinate(c.Query("dropoff"))
	if err != nil {
		return locationsData{}, err
	}
	return locationsData{Pickup: pickup, Dropoff: dropoff}, nil
}

func unsetIfSentinel(c *place.Coordinate) *place.Coordinate {
	if c == nil {
		return nil
	}
	return place.FromSentinel(c.Lon, c.Lat)
}
