// ABOUTME: Route handlers; each one is a thin adapter onto a lifecycle operation
// ABOUTME: Paths mirror the mobile client's API
package web

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/models"
)

type moveStageRequest struct {
	PipelineStage string `json:"pipeline_stage" validate:"required"`
}

type moveGroupsRequest struct {
	GroupIDs []string `json:"group_ids"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) registerContacts(g *echo.Group) {
	g.POST("/contacts", s.createContact)
	g.GET("/contacts", s.listContacts)
	g.DELETE("/contacts", s.deleteAllContacts)
	g.GET("/contacts/:id", s.getContact)
	g.PUT("/contacts/:id", s.updateContact)
	g.DELETE("/contacts/:id", s.deleteContact)
	g.POST("/contacts/:id/move-pipeline", s.moveStage)
	g.POST("/contacts/:id/move-to-groups", s.moveToGroups)
	g.GET("/contacts/:id/interactions", s.listInteractions)
	g.POST("/contacts/:id/interactions", s.logInteraction)
	g.GET("/contacts/:id/calendar-events", s.contactEvents)
	g.DELETE("/interactions/:id", s.deleteInteraction)
}

func (s *Server) createContact(c echo.Context) error {
	in, err := bind[models.NewContact](c)
	if err != nil {
		return err
	}
	contact, err := s.svc.CreateContact(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *Server) listContacts(c echo.Context) error {
	contacts, err := s.svc.ListContacts(c.Request().Context(), currentUser(c), c.QueryParam("pipeline_stage"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contacts)
}

func (s *Server) getContact(c echo.Context) error {
	contact, err := s.svc.GetContact(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *Server) updateContact(c echo.Context) error {
	upd, err := bind[models.ContactUpdate](c)
	if err != nil {
		return err
	}
	contact, err := s.svc.UpdateContact(c.Request().Context(), currentUser(c), c.Param("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *Server) deleteContact(c echo.Context) error {
	if err := s.svc.DeleteContact(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Contact deleted successfully"})
}

func (s *Server) deleteAllContacts(c echo.Context) error {
	n, err := s.svc.DeleteAllContacts(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: fmt.Sprintf("Deleted %d contacts successfully", n)})
}

func (s *Server) moveStage(c echo.Context) error {
	req, err := bind[moveStageRequest](c)
	if err != nil {
		return err
	}
	contact, err := s.svc.MoveStage(c.Request().Context(), currentUser(c), c.Param("id"), req.PipelineStage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *Server) moveToGroups(c echo.Context) error {
	req, err := bind[moveGroupsRequest](c)
	if err != nil {
		return err
	}
	contact, err := s.svc.MoveToGroups(c.Request().Context(), currentUser(c), c.Param("id"), req.GroupIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *Server) listInteractions(c echo.Context) error {
	list, err := s.svc.ListInteractions(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) logInteraction(c echo.Context) error {
	in, err := bind[models.NewInteraction](c)
	if err != nil {
		return err
	}
	interaction, _, err := s.svc.LogInteraction(c.Request().Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interaction)
}

func (s *Server) deleteInteraction(c echo.Context) error {
	if err := s.svc.DeleteInteraction(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Interaction deleted successfully"})
}

func (s *Server) contactEvents(c echo.Context) error {
	events, err := s.svc.EventsForContact(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) registerDrafts(g *echo.Group) {
	g.POST("/drafts/generate/:contact_id", s.generateDraft)
	g.GET("/drafts", s.listDrafts)
	g.PUT("/drafts/:id/dismiss", s.dismissDraft)
	g.PUT("/drafts/:id/sent", s.markDraftSent)
	g.DELETE("/drafts/:id", s.deleteDraft)
}

func (s *Server) generateDraft(c echo.Context) error {
	hints, err := bind[drafter.StyleHints](c)
	if err != nil {
		return err
	}
	d, err := s.svc.GenerateDraft(c.Request().Context(), currentUser(c), c.Param("contact_id"), hints)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) listDrafts(c echo.Context) error {
	drafts, err := s.svc.ListDrafts(c.Request().Context(), currentUser(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, drafts)
}

func (s *Server) dismissDraft(c echo.Context) error {
	if _, err := s.svc.DismissDraft(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Draft dismissed"})
}

func (s *Server) markDraftSent(c echo.Context) error {
	if _, _, err := s.svc.MarkDraftSent(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Draft marked as sent and contact updated"})
}

func (s *Server) deleteDraft(c echo.Context) error {
	if err := s.svc.DeleteDraft(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Draft deleted"})
}

func (s *Server) registerGroups(g *echo.Group) {
	g.POST("/groups", s.createGroup)
	g.GET("/groups", s.listGroups)
	g.GET("/groups/:id", s.getGroup)
	g.PUT("/groups/:id", s.updateGroup)
	g.DELETE("/groups/:id", s.deleteGroup)
}

func (s *Server) createGroup(c echo.Context) error {
	in, err := bind[models.GroupInput](c)
	if err != nil {
		return err
	}
	group, err := s.svc.CreateGroup(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (s *Server) listGroups(c echo.Context) error {
	groups, err := s.svc.ListGroups(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

func (s *Server) getGroup(c echo.Context) error {
	group, err := s.svc.GetGroup(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (s *Server) updateGroup(c echo.Context) error {
	upd, err := bind[models.GroupUpdate](c)
	if err != nil {
		return err
	}
	group, err := s.svc.UpdateGroup(c.Request().Context(), currentUser(c), c.Param("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (s *Server) deleteGroup(c echo.Context) error {
	if err := s.svc.DeleteGroup(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Group deleted successfully"})
}

func (s *Server) registerEvents(g *echo.Group) {
	g.POST("/calendar-events", s.createEvent)
	g.GET("/calendar-events", s.listEvents)
	g.GET("/calendar-events/today", s.eventsToday)
	g.GET("/calendar-events/week", s.eventsThisWeek)
	g.GET("/calendar-events/by-date/:date", s.eventsOnDate)
	g.GET("/calendar-events/:id", s.getEvent)
	g.PUT("/calendar-events/:id", s.updateEvent)
	g.DELETE("/calendar-events/:id", s.deleteEvent)
}

func (s *Server) createEvent(c echo.Context) error {
	in, err := bind[models.CalendarEventInput](c)
	if err != nil {
		return err
	}
	e, err := s.svc.CreateEvent(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) listEvents(c echo.Context) error {
	events, err := s.svc.ListEvents(c.Request().Context(), currentUser(c), c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) eventsToday(c echo.Context) error {
	events, err := s.svc.EventsToday(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) eventsThisWeek(c echo.Context) error {
	events, err := s.svc.EventsThisWeek(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) eventsOnDate(c echo.Context) error {
	events, err := s.svc.EventsOnDate(c.Request().Context(), currentUser(c), c.Param("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) getEvent(c echo.Context) error {
	e, err := s.svc.GetEvent(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) updateEvent(c echo.Context) error {
	upd, err := bind[models.CalendarEventUpdate](c)
	if err != nil {
		return err
	}
	e, err := s.svc.UpdateEvent(c.Request().Context(), currentUser(c), c.Param("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEvent(c echo.Context) error {
	if err := s.svc.DeleteEvent(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Calendar event deleted successfully"})
}

func (s *Server) registerSettings(g *echo.Group) {
	g.GET("/settings", s.getSettings)
	g.PUT("/settings", s.updateSettings)
	g.GET("/settings/stages", s.stages)
}

func (s *Server) getSettings(c echo.Context) error {
	settings, err := s.svc.GetSettings(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c echo.Context) error {
	upd, err := bind[models.SettingsUpdate](c)
	if err != nil {
		return err
	}
	settings, err := s.svc.UpdateSettings(c.Request().Context(), currentUser(c), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) stages(c echo.Context) error {
	stages, err := s.svc.Stages(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stages)
}

func (s *Server) registerBriefing(g *echo.Group) {
	g.GET("/morning-briefing", s.briefing)
	g.POST("/morning-briefing/generate", s.digest)
}

func (s *Server) briefing(c echo.Context) error {
	due, err := s.svc.Briefing(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}

func (s *Server) digest(c echo.Context) error {
	d, err := s.svc.Digest(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
