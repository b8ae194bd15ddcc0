package cluster_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/pkg/cluster"
	"github.com/lcmc/crm-manager/pkg/inttest"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterHandler(t *testing.T) {
	f := newFixture(t)
	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		cluster.Routes(engine, cluster.NewHandler(f.session))
	})

	t.Run("AddService", func(t *testing.T) {
		var node model.ServiceNode
		client.PostJSON(t, "/services", strings.NewReader(`{
			"id": "ip1",
			"class": "ocf",
			"provider": "heartbeat",
			"agent": "IPaddr2",
			"params": {"ip": "10.0.0.5"}
		}`), &node)

		assert.Equal(t, "ip1", node.ID)
		assert.Equal(t, model.KindIPAddress, node.Kind)
		assert.True(t, node.New)

		client.PostJSON(t, "/services", strings.NewReader(`{"id": "fs1", "class": "ocf", "provider": "heartbeat", "agent": "Filesystem"}`), &node)
	})

	t.Run("AddServiceGivenDuplicatedID", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/services", strings.NewReader(`{"id": "ip1", "class": "lsb", "agent": "apache"}`), http.StatusConflict, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("AddServiceGivenMissingAgent", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/services", strings.NewReader(`{"class": "lsb"}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("AddServiceGivenUnknownAgent", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/services", strings.NewReader(`{"class": "lsb", "agent": "nginx"}`), http.StatusNotFound, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("MutateInTestMode", func(t *testing.T) {
		var ack cluster.Ack
		client.DoJSON(t, http.MethodPost, "/mutations?mode=test", strings.NewReader(`{"kind": "addOrder", "node": "ip1", "with": "fs1"}`), http.StatusOK, &ack)

		assert.Equal(t, model.Test, ack.Mode)
		assert.Equal(t, []string{"crm configure order o-ip1-fs1 inf: ip1 fs1"}, ack.Commands)
		assert.Empty(t, f.live)
	})

	t.Run("MutateLive", func(t *testing.T) {
		var ack cluster.Ack
		client.DoJSON(t, http.MethodPost, "/mutations", strings.NewReader(`{"kind": "addColocation", "node": "ip1", "with": "fs1"}`), http.StatusOK, &ack)

		assert.Equal(t, model.Live, ack.Mode)
		assert.Equal(t, []string{"crm configure colocation c-ip1-fs1 inf: ip1 fs1"}, ack.Commands)
		assert.NotEmpty(t, ack.Edge)
	})

	t.Run("MutateGivenUnknownKind", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/mutations", strings.NewReader(`{"kind": "explode", "node": "ip1"}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("MutateGivenUnknownMode", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/mutations?mode=maybe", strings.NewReader(`{"kind": "stop", "node": "ip1"}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("MutateGivenUnknownEndpoint", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/mutations", strings.NewReader(`{"kind": "addOrder", "node": "ip1", "with": "nope"}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("Graph", func(t *testing.T) {
		var graph cluster.GraphView
		client.GetJSON(t, "/graph", &graph)

		require.Len(t, graph.Nodes, 2)
		assert.Equal(t, "fs1", graph.Nodes[0].ID)
		assert.Equal(t, "ip1", graph.Nodes[1].ID)
		assert.Equal(t, "ocf:heartbeat:IPaddr2", graph.Nodes[1].Agent)
		require.Len(t, graph.Edges, 1)
		assert.True(t, graph.Edges[0].HasColocation)
		assert.False(t, graph.Edges[0].HasOrder)
	})

	t.Run("StartOrder", func(t *testing.T) {
		var order []string
		client.GetJSON(t, "/start-order", &order)

		assert.Equal(t, []string{"fs1", "ip1"}, order)
	})

	t.Run("Find", func(t *testing.T) {
		var result struct {
			Node      string   `json:"node"`
			Available bool     `json:"available"`
			RunningOn []string `json:"runningOn"`
		}
		client.GetJSON(t, "/services/ip1", &result)

		assert.Equal(t, "ip1", result.Node)
		assert.True(t, result.Available)
		assert.Equal(t, []string{"hostA"}, result.RunningOn)
	})

	t.Run("FindGivenUnknownService", func(t *testing.T) {
		client.Do(t, http.MethodGet, "/services/nope", nil, http.StatusNotFound)
	})

	t.Run("AddPlaceholder", func(t *testing.T) {
		var node model.ServiceNode
		client.PostJSON(t, "/placeholders", strings.NewReader(`{"id": "ph1"}`), &node)

		assert.Equal(t, "ph1", node.ID)
		assert.Equal(t, model.KindPlaceholder, node.Kind)
	})

	t.Run("RemoveService", func(t *testing.T) {
		var ack cluster.Ack
		client.DoJSON(t, http.MethodDelete, "/services/ip1", nil, http.StatusAccepted, &ack)

		assert.Equal(t, []string{"crm configure delete c-ip1-fs1", "crm configure delete ip1"}, ack.Commands)
	})

	t.Run("RemoveServiceGivenUnavailableCoordinator", func(t *testing.T) {
		f.status.status.DC = ""
		t.Cleanup(func() { f.status.status.DC = "hostA" })

		client.Do(t, http.MethodDelete, "/services/fs1", nil, http.StatusServiceUnavailable)
	})
}
