package service

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/lcmc/crm-manager/internal/errdef"
)

var validate = validator.New()

// ValidateIP validates the parameters of an IP address service. The ip parameter has to be an IPv4
// or IPv6 address and cidr_netmask, if set, has to fit its family. If subnets are given the address
// has to be part of one of them.
func ValidateIP(params map[string]string, subnets []netip.Prefix) error {
	ip := params["ip"]
	if err := validate.Var(ip, "required,ip"); err != nil {
		return errdef.NewBadRequest("parameter \"ip\": %q is not an IP address", ip)
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return errdef.NewBadRequest("parameter \"ip\": %v", err)
	}

	if netmask, ok := params["cidr_netmask"]; ok && netmask != "" {
		bits, err := strconv.Atoi(netmask)
		if err != nil || bits < 1 || bits > addr.BitLen() {
			return errdef.NewBadRequest("parameter \"cidr_netmask\": %q is not valid for %s", netmask, ip)
		}
	}

	if len(subnets) == 0 {
		return nil
	}
	for _, subnet := range subnets {
		if subnet.Contains(addr) {
			return nil
		}
	}
	return errdef.NewBadRequest("parameter \"ip\": %s is not part of any host subnet %v", ip, fmtPrefixes(subnets))
}

func fmtPrefixes(prefixes []netip.Prefix) string {
	s := ""
	for i, p := range prefixes {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return fmt.Sprintf("[%s]", s)
}
