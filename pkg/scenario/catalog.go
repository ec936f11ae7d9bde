package scenario

import (
	"strconv"
)

// Certificates and messages the signing pipeline produces.
const (
	MicrosoftCertificate = "Microsoft400"
	DotNetCertificate    = "MicrosoftDotNet500"
	OverrideCertificate  = "Microsoft401"
	EmptySignListError   = "error : List of files to sign is empty. Make sure that ItemsToSign is configured correctly"
)

var (
	signFlags = []string{"restore", "sign"}
	packFlags = []string{"restore", "pack", "publish", "sign"}
	packProps = []Property{{"AutoGenerateSymbolPackages", "false"}}
)

func packable(extra ...Property) Project {
	return Project{
		OutputType: "Exe",
		Properties: append([]Property{{"IsPackable", "true"}}, extra...),
	}
}

func allowEmpty(extra ...Property) *Signing {
	return &Signing{Properties: append([]Property{{"AllowEmptySignList", "true"}}, extra...)}
}

// Catalog returns the built-in scenarios. Each call returns fresh values.
func Catalog() []*Scenario {
	list := []*Scenario{
		{
			Name:        "basic-repo-build",
			Description: "restore and sign a packable exe with an empty sign list allowed",
			Signing:     allowEmpty(),
			Project:     packable(),
			Build:       Build{Flags: signFlags},
		},
	}

	for _, explicit := range []bool{true, false} {
		sc := &Scenario{
			Name:        "empty-sign-list-default",
			Description: "signing nothing fails when AllowEmptySignList is left unset",
			Project:     packable(),
			Build:       Build{Flags: signFlags},
			Expect:      Expect{Fail: true, ErrorContains: EmptySignListError},
		}
		if explicit {
			sc.Name = "empty-sign-list-explicit"
			sc.Description = "signing nothing fails when AllowEmptySignList is false"
			sc.Signing = &Signing{Properties: []Property{{"AllowEmptySignList", "false"}}}
		}
		list = append(list, sc)
	}

	for _, use := range []*bool{ptr(true), ptr(false), nil} {
		sc := &Scenario{
			Name:        "dotnet-certificate-unset",
			Description: "exe is signed with the default certificate",
			Signing:     allowEmpty(),
			Project:     packable(Property{"EnableSourceLink", "false"}),
			Build:       Build{Flags: packFlags, Properties: packProps},
			Expect:      Expect{Certificates: []string{MicrosoftCertificate}},
		}
		if use != nil {
			sc.Name = "dotnet-certificate-" + strconv.FormatBool(*use)
			sc.Description = "UseDotNetCertificate=" + boolProperty(*use)
			sc.Signing = allowEmpty(Property{"UseDotNetCertificate", boolProperty(*use)})
			if *use {
				sc.Expect.Certificates = []string{DotNetCertificate}
			}
		}
		list = append(list, sc)
	}

	for _, use := range []bool{false, true} {
		signing := allowEmpty()
		if use {
			signing = allowEmpty(Property{"UseDotNetCertificate", boolProperty(true)})
		}
		signing.Items = []Item{{
			Type:   "StrongNameSignInfo",
			Update: "MsSharedLib72",
			Metadata: []Property{
				{"PublicKeyToken", "31bf3856ad364e35"},
				{"CertificateName", OverrideCertificate},
			},
		}}
		name := "certificate-override-default"
		if use {
			name = "certificate-override-dotnet"
		}
		list = append(list, &Scenario{
			Name:        name,
			Description: "an explicitly overridden certificate is not substituted",
			Signing:     signing,
			Project:     packable(Property{"EnableSourceLink", "false"}),
			Build:       Build{Flags: packFlags, Properties: packProps},
			Expect:      Expect{Certificates: []string{OverrideCertificate}},
		})
	}
	return list
}

// boolProperty renders a bool the way MSBuild property files spell it.
func boolProperty(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func ptr[T any](v T) *T {
	return &v
}
