package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/kolecto/tontine-api/docs"
	v1 "github.com/kolecto/tontine-api/internal/api/handler/v1"
	"github.com/kolecto/tontine-api/internal/api/middleware"
	"github.com/kolecto/tontine-api/internal/config"
	"github.com/kolecto/tontine-api/internal/repository"
	"github.com/kolecto/tontine-api/internal/repository/dao"
	"github.com/kolecto/tontine-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	wallet   service.Wallet
	fees     service.FeePolicy
	notifier service.Notifier
}

func NewServer(conf *config.AppConfig, db *gorm.DB, wallet service.Wallet, fees service.FeePolicy, notifier service.Notifier) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:   conf,
		Router:   engine,
		wallet:   wallet,
		fees:     fees,
		notifier: notifier,
	}

	s.MountMiddlewares()

	tontineHandler := s.initTontineHandler(db)
	penaltyHandler := s.initPenaltyHandler(db)
	s.MountHandlers(tontineHandler, penaltyHandler)

	return s
}

func (s *Server) initTontineHandler(db *gorm.DB) *v1.TontineHandler {
	tontineDAO := dao.NewTontineDAO(db)
	repo := repository.NewTontineRepository(tontineDAO)
	svc := service.NewTontineService(repo, s.wallet, s.fees, s.notifier)
	handler := v1.NewTontineHandler(svc)

	return handler
}

func (s *Server) initPenaltyHandler(db *gorm.DB) *v1.PenaltyHandler {
	penaltyDAO := dao.NewPenaltyDAO(db)
	repo := repository.NewPenaltyRepository(penaltyDAO)
	tontineRepo := repository.NewTontineRepository(dao.NewTontineDAO(db))
	svc := service.NewPenaltyService(repo, tontineRepo, s.wallet, s.fees, s.notifier)
	handler := v1.NewPenaltyHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(tontineHandler *v1.TontineHandler, penaltyHandler *v1.PenaltyHandler) {
	const basePath = "/api/v1"

	tontines := s.Router.Group(basePath)
	{
		tontines.POST("/tontines", tontineHandler.HandleCreateTontine)
		tontines.GET("/tontines/:tontineID", tontineHandler.HandleGetTontine)
		tontines.GET("/tontines/:tontineID/escrow", tontineHandler.HandleGetEscrow)
		tontines.GET("/tontines/:tontineID/ledger", tontineHandler.HandleListLedger)
		tontines.GET("/tontines/:tontineID/members", tontineHandler.HandleListMembers)
		tontines.POST("/tontines/:tontineID/members", tontineHandler.HandleRequestMembership)
		tontines.POST("/tontines/:tontineID/members/:memberID/review", tontineHandler.HandleReviewMembership)
		tontines.DELETE("/tontines/:tontineID/members/:memberID", tontineHandler.HandleExcludeMember)
		tontines.POST("/tontines/:tontineID/members/:memberID/suspend", tontineHandler.HandleSuspendMember)
		tontines.POST("/tontines/:tontineID/suspend", tontineHandler.HandleSuspendTontine)
		tontines.POST("/tontines/:tontineID/rotation", tontineHandler.HandleGenerateRotation)
		tontines.GET("/tontines/:tontineID/rounds", tontineHandler.HandleListRounds)
		tontines.GET("/tontines/:tontineID/beneficiary", tontineHandler.HandleNextBeneficiary)
		tontines.GET("/rounds/:roundID/contributions", tontineHandler.HandleListContributions)
		tontines.POST("/tontines/:tontineID/members/:memberID/contributions/:contributionID/pay", tontineHandler.HandlePayContribution)
		tontines.POST("/tontines/:tontineID/distribute", tontineHandler.HandleDistribute)
		tontines.POST("/tontines/:tontineID/escrow/deposit", tontineHandler.HandleDeposit)
		tontines.POST("/tontines/:tontineID/escrow/withdraw", tontineHandler.HandleWithdraw)
	}

	penalties := s.Router.Group(basePath)
	{
		penalties.POST("/tontines/:tontineID/penalties", penaltyHandler.HandleApplyPenalty)
		penalties.GET("/tontines/:tontineID/members/:memberID/penalties", penaltyHandler.HandleListPenalties)
		penalties.POST("/penalties/:penaltyID/pay", penaltyHandler.HandlePayPenalty)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Tontine API"
	docs.SwaggerInfo.Description = "Rotating savings group management: members, rotations, contributions, escrow and penalties."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
