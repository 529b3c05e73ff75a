package api

import (
	"net/http"

	"spotbuddy/workout-bot/internal/service"
	"spotbuddy/workout-bot/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter builds a gin engine with the standard middleware stack.
func NewRouter(logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), AccessLog(logger), Recovery(logger), CORS())
	return router
}

func SetupRoutes(
	router *gin.Engine,
	logger logrus.FieldLogger,
	workoutService service.WorkoutService,
	groupService service.GroupService,
	userService service.UserService,
	calendarService service.CalendarService,
	exportService service.ExportService,
	dispatcher UpdateDispatcher,
) {
	workoutHandler := NewWorkoutHandler(workoutService, logger)
	groupHandler := NewGroupHandler(groupService, calendarService, exportService, logger)
	userHandler := NewUserHandler(userService, logger)
	webhookHandler := NewWebhookHandler(dispatcher, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/webhook", webhookHandler.HandleUpdate)

	router.GET("/mini-app", serveMiniApp(logger))
	router.StaticFS("/assets", http.FS(web.Assets()))

	apiGroup := router.Group("/api")
	{
		workouts := apiGroup.Group("/workouts")
		{
			workouts.POST("", workoutHandler.CreateWorkout)
			// Static "group" wins over the :userId wildcard.
			workouts.GET("/group/:groupId", workoutHandler.GetGroupWorkouts)
			workouts.GET("/:userId", workoutHandler.GetUserWorkouts)
			workouts.PUT("/:workoutId", workoutHandler.UpdateWorkout)
			workouts.DELETE("/:workoutId", workoutHandler.DeleteWorkout)
		}

		groups := apiGroup.Group("/groups/:groupId")
		{
			groups.GET("/members", groupHandler.GetMembers)
			groups.GET("/workouts/:date", groupHandler.GetWorkoutsByDate)
			groups.GET("/calendar", groupHandler.GetCalendar)
			groups.GET("/export", groupHandler.ExportMonth)
			groups.GET("/exports", groupHandler.ListExports)
		}

		apiGroup.GET("/users/:userId", userHandler.GetUser)
	}
}

func serveMiniApp(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := web.IndexHTML()
		if err != nil {
			requestLogger(c, logger).WithError(err).Error("mini-app page missing from build")
			abortWithError(c, http.StatusInternalServerError, "Mini-app unavailable.")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}
