package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/store"
)

// queryFilter builds an equality filter from the query string. Only the
// first value of each parameter is used.
func queryFilter[T any](c *gin.Context, s *store.Store[T]) (store.Filter, error) {
	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return s.FilterFromJSON(params)
}

func listRecords[T any](s *store.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := queryFilter(c, s)
		if err != nil {
			c.Error(err)
			return
		}
		recs, err := s.List(c.Request.Context(), f)
		if err != nil {
			c.Error(err)
			return
		}
		if recs == nil {
			recs = []T{}
		}
		c.JSON(http.StatusOK, recs)
	}
}

func getRecord[T any](s *store.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// createRecord binds a T, runs check when set, and stores it.
func createRecord[T any](s *store.Store[T], check func(c *gin.Context, rec *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := new(T)
		if err := bind(c, rec); err != nil {
			c.Error(err)
			return
		}
		if check != nil {
			if err := check(c, rec); err != nil {
				c.Error(err)
				return
			}
		}
		id, err := s.Create(c.Request.Context(), rec)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// patchRecord merges the JSON body onto the stored record. check sees the
// decoded body keys before anything is written.
func patchRecord[T any](s *store.Store[T], check func(c *gin.Context, id string, body []byte, keys map[string]json.RawMessage) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		body, keys, err := readObject(c)
		if err != nil {
			c.Error(err)
			return
		}
		if check != nil {
			if err := check(c, id, body, keys); err != nil {
				c.Error(err)
				return
			}
		}
		rec, err := s.Patch(c.Request.Context(), id, body)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func deleteRecord[T any](s *store.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.Delete(c.Request.Context(), id); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

// readObject reads the request body as a JSON object.
func readObject(c *gin.Context) ([]byte, map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, nil, fault.Wrap(fault.ErrInvalidValue, err, "read request body")
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, nil, fault.Wrap(fault.ErrInvalidValue, err, "request body must be a JSON object")
	}
	return body, keys, nil
}

// refuseKeys rejects bodies naming any of the given fields.
func refuseKeys(keys map[string]json.RawMessage, reason string, fields ...string) error {
	for _, f := range fields {
		if _, ok := keys[f]; ok {
			return fault.New(fault.ErrInvalidValue, "field %q %s", f, reason)
		}
	}
	return nil
}

// onlyKeys rejects bodies naming fields outside allowed.
func onlyKeys(keys map[string]json.RawMessage, allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for k := range keys {
		if !ok[k] {
			return fault.New(fault.ErrInvalidValue, "field %q cannot be updated here", k)
		}
	}
	return nil
}
