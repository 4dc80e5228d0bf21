package graph

import (
	"strings"

	"visiongraph/pkg/models"
)

// Defaults for the network-chain compiler. Network samples are smaller than
// process samples; the edge cap is slightly looser since every record can
// contribute up to four edges.
const (
	DefaultNetworkSample   = 50
	DefaultNetworkMaxEdges = 120
)

// NetworkBuilder compiles detections into a traffic chain:
// actor -> client -> request -> destination -> policy decision.
type NetworkBuilder struct {
	Sample   int
	MaxEdges int
}

// NewNetworkBuilder creates a builder with default bounds.
func NewNetworkBuilder() *NetworkBuilder {
	return &NetworkBuilder{Sample: DefaultNetworkSample, MaxEdges: DefaultNetworkMaxEdges}
}

// Compile deterministically derives a deduplicated traffic graph from the
// first Sample records. It returns nil when inactive, when the input is
// empty, or when no record carried a usable traffic field. Every sampled
// record is processed: the edge cap limits how many edges are stored, not
// how many records contribute nodes or are counted in EdgesSeen.
func (n *NetworkBuilder) Compile(dets []*models.Detection, active bool) *models.CompiledGraph {
	if !active || len(dets) == 0 {
		return nil
	}
	sample := n.Sample
	if sample <= 0 {
		sample = DefaultNetworkSample
	}
	maxEdges := n.MaxEdges
	if maxEdges <= 0 {
		maxEdges = DefaultNetworkMaxEdges
	}
	if len(dets) > sample {
		dets = dets[:sample]
	}

	b := newBuilder("network", maxEdges)
	for _, d := range dets {
		if d == nil {
			continue
		}

		ua := resolveUserAgent(d)
		dst := d.First("dst", "dstIp")
		act := d.First("act", "action")
		domain := d.First("urlHost", "hostName", "domainName")
		if ua == "" && dst == "" && act == "" && domain == "" {
			// Nothing network-shaped on this record.
			continue
		}

		principal := resolvePrincipal(d)
		endpoint := resolveEndpoint(d)
		actorID := b.node("actor:"+principal+"@"+endpoint,
			"👤 "+sanitizeLabel(principal)+"<br/>"+sanitizeLabel(endpoint), "actor")

		clientName := sniffClient(ua)
		osName := sniffOS(d.First("osName", "endpointOS"), ua)
		clientID := b.node("client:"+clientName+"/"+osName,
			"🌐 "+clientName+"<br/>"+osName, "client")
		b.edge(actorID, clientID, "")

		method := d.First("httpMethod", "requestMethod")
		if method == "" {
			method = "GET"
		}
		if domain == "" {
			domain = models.SentinelHost
		}
		requestID := b.node("req:"+method+" "+domain,
			sanitizeLabel(strings.ToUpper(method))+" "+sanitizeLabel(baseDomain(domain)), "request")
		b.edge(clientID, requestID, "")

		destIP := resolveDestination(d)
		location := d.First("dstLocation", "ipCountry")
		tls := strings.EqualFold(d.First("requestProtocol", "appProto"), "https")
		destLabel := "🖥️ " + sanitizeLabel(destIP)
		if location != "" {
			destLabel += "<br/>" + sanitizeLabel(location)
		}
		if tls {
			destLabel += " 🔒"
		}
		destID := b.node("dst:"+destIP, destLabel, "destination")
		b.edge(requestID, destID, "")

		policyID := b.node(policyKey(d), policyLabel(d, act), policyClass(act))
		b.edge(destID, policyID, "")
	}

	return b.graph()
}

// sniffClient maps a user-agent string to a fixed client label. Edge must
// be checked before Chrome and Chrome before Safari; their UA strings nest.
func sniffClient(ua string) string {
	switch {
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	default:
		return "Client"
	}
}

func sniffOS(osField, ua string) string {
	if osField != "" {
		return sanitizeLabel(osField)
	}
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return models.SentinelOS
	}
}

// baseDomain reduces a host to its last two labels so request nodes group
// per site rather than per subdomain. IP literals pass through.
func baseDomain(host string) string {
	host = strings.TrimSuffix(host, ".")
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	for _, p := range parts {
		for _, r := range p {
			if r < '0' || r > '9' {
				return strings.Join(parts[len(parts)-2:], ".")
			}
		}
	}
	return host
}

func policyKey(d *models.Detection) string {
	return strings.Join([]string{
		"policy",
		d.First("act", "action"),
		d.First("ruleName", "policyName"),
		d.First("urlCat", "category"),
		d.Field("score"),
	}, ":")
}

func policyLabel(d *models.Detection, act string) string {
	label := actionLabel(act)
	if rule := d.First("ruleName", "policyName"); rule != "" {
		label += "<br/>" + sanitizeLabel(rule)
	}
	if cat := d.First("urlCat", "category"); cat != "" {
		label += "<br/>" + sanitizeLabel(cat)
	}
	label += "<br/>" + riskTier(d.Score())
	return label
}

// riskTier derives a display tier from the vendor score.
func riskTier(score int) string {
	switch {
	case score >= 90:
		return "🔴 High Risk"
	case score >= 70:
		return "🟠 Medium Risk"
	default:
		return "🟢 Low Risk"
	}
}

func actionLabel(act string) string {
	lower := strings.ToLower(act)
	switch {
	case strings.Contains(lower, "block"), strings.Contains(lower, "deny"):
		return "⛔ Blocked"
	case strings.Contains(lower, "allow"), strings.Contains(lower, "pass"):
		return "✅ Allowed"
	case strings.Contains(lower, "alert"), strings.Contains(lower, "warn"):
		return "⚠️ Alerted"
	case lower == "":
		return "◽ No Action"
	default:
		return "◽ " + sanitizeLabel(act)
	}
}

func policyClass(act string) string {
	lower := strings.ToLower(act)
	switch {
	case strings.Contains(lower, "block"), strings.Contains(lower, "deny"):
		return "blocked"
	case strings.Contains(lower, "alert"), strings.Contains(lower, "warn"):
		return "alerted"
	default:
		return "policy"
	}
}
