package status

import (
	"context"
	"encoding/xml"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// Fetcher returns the XML status document of the cluster.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// CommandFetcher runs a local command printing crm_mon XML, usually "crm_mon --as-xml --one-shot".
type CommandFetcher struct {
	Name string
	Args []string
}

func (c CommandFetcher) Fetch(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, c.Name, c.Args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed running %q: %v", c.Name, err)
	}
	return out, nil
}

// CRMMonSource is a Source reading crm_mon XML.
type CRMMonSource struct {
	Fetcher Fetcher
}

func (s CRMMonSource) Poll(ctx context.Context) (*model.ClusterStatus, error) {
	data, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return ParseCRMMon(data)
}

type crmMon struct {
	XMLName   xml.Name       `xml:"crm_mon"`
	Summary   crmMonSummary  `xml:"summary"`
	Nodes     []crmMonNode   `xml:"nodes>node"`
	Resources crmMonSections `xml:"resources"`
}

type crmMonSummary struct {
	CurrentDC struct {
		Present bool   `xml:"present,attr"`
		Name    string `xml:"name,attr"`
	} `xml:"current_dc"`
	LastUpdate struct {
		Time string `xml:"time,attr"`
	} `xml:"last_update"`
}

type crmMonNode struct {
	Name    string `xml:"name,attr"`
	Online  bool   `xml:"online,attr"`
	Standby bool   `xml:"standby,attr"`
	Unclean bool   `xml:"unclean,attr"`
}

type crmMonSections struct {
	Resources []crmMonResource `xml:"resource"`
	Groups    []crmMonGroup    `xml:"group"`
	Clones    []crmMonClone    `xml:"clone"`
}

type crmMonResource struct {
	ID      string `xml:"id,attr"`
	Agent   string `xml:"resource_agent,attr"`
	Role    string `xml:"role,attr"`
	Managed bool   `xml:"managed,attr"`
	Failed  bool   `xml:"failed,attr"`
	Nodes   []struct {
		Name string `xml:"name,attr"`
	} `xml:"node"`
}

type crmMonGroup struct {
	ID        string           `xml:"id,attr"`
	Resources []crmMonResource `xml:"resource"`
}

type crmMonClone struct {
	ID        string           `xml:"id,attr"`
	Managed   bool             `xml:"managed,attr"`
	Failed    bool             `xml:"failed,attr"`
	Resources []crmMonResource `xml:"resource"`
	Groups    []crmMonGroup    `xml:"group"`
}

// ParseCRMMon parses the XML printed by crm_mon --as-xml. Clone instances ("drbd:0", "drbd:1") are
// merged into their primitive and into the clone. Group members are merged into the group.
func ParseCRMMon(data []byte) (*model.ClusterStatus, error) {
	var doc crmMon
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed parsing crm_mon XML: %v", err)
	}

	status := &model.ClusterStatus{
		Resources: make(map[string]model.ResourceStatus),
		Hosts:     make(map[string]model.HostStatus, len(doc.Nodes)),
		PolledAt:  time.Now(),
	}
	if doc.Summary.CurrentDC.Present {
		status.DC = doc.Summary.CurrentDC.Name
	}
	for _, node := range doc.Nodes {
		status.Hosts[node.Name] = model.HostStatus{Online: node.Online, Standby: node.Standby, Unclean: node.Unclean}
	}

	for _, resource := range doc.Resources.Resources {
		merge(status, resource.ID, resource)
	}
	for _, group := range doc.Resources.Groups {
		mergeGroup(status, group, "")
	}
	for _, clone := range doc.Resources.Clones {
		cloneStatus := model.ResourceStatus{Managed: clone.Managed, Failed: clone.Failed}
		status.Resources[clone.ID] = cloneStatus
		for _, resource := range clone.Resources {
			merge(status, instanceOf(resource.ID), resource)
			merge(status, clone.ID, resource)
		}
		for _, group := range clone.Groups {
			mergeGroup(status, group, clone.ID)
		}
	}

	for id, r := range status.Resources {
		r.RunningOn = unique(r.RunningOn)
		r.MasterOn = unique(r.MasterOn)
		status.Resources[id] = r
	}
	return status, nil
}

func mergeGroup(status *model.ClusterStatus, group crmMonGroup, clone string) {
	id := instanceOf(group.ID)
	if _, ok := status.Resources[id]; !ok {
		status.Resources[id] = model.ResourceStatus{Managed: true}
	}
	for _, resource := range group.Resources {
		merge(status, instanceOf(resource.ID), resource)
		merge(status, id, resource)
		if clone != "" {
			merge(status, clone, resource)
		}
	}
}

func merge(status *model.ClusterStatus, id string, resource crmMonResource) {
	r, ok := status.Resources[id]
	if !ok {
		r.Managed = resource.Managed
	} else {
		r.Managed = r.Managed && resource.Managed
	}
	r.Failed = r.Failed || resource.Failed
	if id == instanceOf(resource.ID) {
		r.Agent = resource.Agent
	}
	for _, node := range resource.Nodes {
		r.RunningOn = append(r.RunningOn, node.Name)
		if strings.EqualFold(resource.Role, "Master") || strings.EqualFold(resource.Role, "Promoted") {
			r.MasterOn = append(r.MasterOn, node.Name)
		}
	}
	status.Resources[id] = r
}

// instanceOf strips the clone instance suffix of id.
func instanceOf(id string) string {
	if i := strings.LastIndex(id, ":"); i > 0 {
		return id[:i]
	}
	return id
}

func unique(hosts []string) []string {
	if len(hosts) == 0 {
		return nil
	}
	sorted := slices.Clone(hosts)
	sort.Strings(sorted)
	return slices.Compact(sorted)
}
